package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	evb "github.com/sps-cebra/evb_go/pkg"
)

var configuration evb.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	logger = NewLogger(os.Stdout, os.Stderr, slog.LevelDebug)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	evb.SetConfiguration(configuration)
	evb.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	if err := run(configuration); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(config evb.Configuration) error {
	file, err := os.Open(config.FileIn)
	if err != nil {
		return &evb.ErrOpenFile{Filename: config.FileIn, Err: err}
	}
	defer file.Close()

	evtCount, streamRun, err := countEvents(file)
	if err != nil {
		return err
	}
	runNumber := resolveRunNumber(config, streamRun)
	evtsToRead := numberOfEventsToProcess(evtCount, config.Skip, config.MaxEvents)
	message := fmt.Sprintf("Run %d: %s events in file, %s to process",
		runNumber, humanize.Comma(int64(evtCount)), humanize.Comma(int64(evtsToRead)))
	logger.Info(message, "main")

	gains := loadGains(config, runNumber)
	if gains.IsValid() && config.Dither {
		seed := config.DitherSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		gains.SetDither(rand.New(rand.NewSource(seed)))
	}

	positions := evb.NewPositionEngine(config.Positions(), config.FocalPlaneOffset)
	analyzer := evb.NewAnalyzer(positions, gains, config.Timing())

	var sorter *evb.FastSorter
	if config.FastSort {
		sorter = evb.NewFastSorter(config.CebraWindow, config.IonWindow)
	}

	var sink EventSink
	if config.WriteData {
		output, closeOutput, err := newOutput(config.FileOut, config.CompressionLevel)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeOutput(); err != nil {
				logger.Error(fmt.Errorf("error closing output: %w", err).Error())
			}
		}()
		sink = output
	}

	start := time.Now()
	fileReader := NewFileReader(file, config.Skip, config.MaxEvents)
	jobs := make(chan WorkerData, config.BufferSize)
	readErr := make(chan error, 1)
	go sendEvents(fileReader, jobs, readErr)

	stats, writeErr := processEvents(jobs, analyzer, sorter, runNumber, sink, progressReporter(evtsToRead, config.ProgressFraction))
	if err := <-readErr; err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}

	duration := time.Since(start)
	message = fmt.Sprintf("Processed %s slow events into %s events (%s with xavg, %s written) in %d ms",
		humanize.Comma(int64(stats.SlowEvents)), humanize.Comma(int64(stats.FastEvents)),
		humanize.Comma(int64(stats.WithXavg)), humanize.Comma(int64(stats.Written)), duration.Milliseconds())
	logger.Info(message, "main")
	return nil
}

// resolveRunNumber prefers the configuration, then the file name, then the
// run recorded in the stream.
func resolveRunNumber(config evb.Configuration, streamRun int) int {
	if config.RunNumber > 0 {
		return config.RunNumber
	}
	if run, ok := runNumberFromFilename(config.FileIn); ok {
		return run
	}
	return streamRun
}

// loadGains never fails: any problem leaves an invalid map, which turns the
// calibration into the identity.
func loadGains(config evb.Configuration, runNumber int) *evb.GainCalibrationMap {
	if config.GainsFromDB {
		dbConn, err := evb.ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
		if err != nil {
			message := fmt.Errorf("Error connection to database: %w", err)
			logger.Error(message.Error())
			return evb.NewGainCalibrationMap()
		}
		defer dbConn.Close()
		gains, err := evb.LoadGainMapFromDB(dbConn, runNumber)
		if err != nil {
			logger.Error(fmt.Errorf("error loading gains from database: %w", err).Error())
		}
		return gains
	}

	if config.GainFile == "" {
		return evb.NewGainCalibrationMap()
	}
	gains, err := evb.LoadGainCalibrationMap(config.GainFile)
	if err != nil {
		var openErr *evb.ErrOpenFile
		if errors.As(err, &openErr) {
			message := fmt.Sprintf("Gain file %s unavailable, CeBrA energies stay uncalibrated", openErr.Filename)
			logger.Info(message, "main")
		}
		logger.Error(err.Error())
	}
	return gains
}

func progressReporter(total int, fraction float64) func(int) {
	step := int(float64(total) * fraction)
	if step <= 0 {
		return nil
	}
	return func(done int) {
		if done%step == 0 {
			message := fmt.Sprintf("Processed %s of %s events", humanize.Comma(int64(done)), humanize.Comma(int64(total)))
			logger.Info(message, "main")
		}
	}
}
