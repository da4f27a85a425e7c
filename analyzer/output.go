//go:build !nohdf5

package main

import "github.com/sps-cebra/evb_go/pkg/writer"

// newOutput opens the HDF5 file the processed events are written to.
func newOutput(filename string, compressionLevel int) (EventSink, func() error, error) {
	w, err := writer.NewWriter(filename, compressionLevel)
	if err != nil {
		return nil, nil, err
	}
	return w, w.Close, nil
}
