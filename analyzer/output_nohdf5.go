//go:build nohdf5

package main

import "errors"

var errNoHDF5 = errors.New("built without HDF5 support, set write_data to false")

func newOutput(filename string, compressionLevel int) (EventSink, func() error, error) {
	return nil, nil, errNoHDF5
}
