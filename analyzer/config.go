package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	evb "github.com/sps-cebra/evb_go/pkg"
	"gopkg.in/yaml.v3"
)

func LoadConfiguration(filename string) (evb.Configuration, error) {
	var config evb.Configuration

	// Set default values
	positions := evb.DefaultPositionConfig()
	config.MaxEvents = 1000000000
	config.Verbosity = 0
	config.Skip = 0
	config.RunNumber = 0
	config.FastSort = false
	config.CebraWindow = 3000
	config.IonWindow = 3000
	config.FrontDelayScale = positions.FrontDelayScale
	config.BackDelayScale = positions.BackDelayScale
	config.WireDistance = positions.WireDistance
	config.AngleBaseline = positions.AngleBaseline
	config.FocalPlaneOffset = 0
	config.GainsFromDB = false
	config.GainTimeScale = evb.DefaultTimingConfig().GainTimeScale
	config.Dither = true
	config.DitherSeed = 0
	config.Host = "localhost"
	config.User = "evbreader"
	config.Passwd = "readonly"
	config.DBName = "CEBRA"
	config.WriteData = true
	config.CompressionLevel = 4
	config.BufferSize = 1000
	config.ProgressFraction = 0.1

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config evb.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Fast sort: %t", config.FastSort), "config")
	logger.Info(fmt.Sprintf("CeBrA window: %g", config.CebraWindow), "config")
	logger.Info(fmt.Sprintf("Ion chamber window: %g", config.IonWindow), "config")
	logger.Info(fmt.Sprintf("Front delay scale: %g", config.FrontDelayScale), "config")
	logger.Info(fmt.Sprintf("Back delay scale: %g", config.BackDelayScale), "config")
	logger.Info(fmt.Sprintf("Wire distance: %g", config.WireDistance), "config")
	logger.Info(fmt.Sprintf("Angle baseline: %g", config.AngleBaseline), "config")
	logger.Info(fmt.Sprintf("zfp: %g", config.FocalPlaneOffset), "config")
	logger.Info(fmt.Sprintf("Gain file: %s", config.GainFile), "config")
	logger.Info(fmt.Sprintf("Gains from DB: %t", config.GainsFromDB), "config")
	logger.Info(fmt.Sprintf("Gain time scale: %g", config.GainTimeScale), "config")
	logger.Info(fmt.Sprintf("Dither: %t", config.Dither), "config")
	logger.Info(fmt.Sprintf("Dither seed: %d", config.DitherSeed), "config")
	logger.Info(fmt.Sprintf("CeBrA time shifts: %v", config.CebraTimeShift), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Buffer size: %d", config.BufferSize), "config")
	logger.Info(fmt.Sprintf("Progress fraction: %g", config.ProgressFraction), "config")
}
