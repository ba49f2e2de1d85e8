// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// scd30 reads a Sensirion SCD30 and prints the readings. Optionally it shows
// a level bar in the terminal, renders each reading to a PNG and serves
// Prometheus metrics.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/scd30/readout"
	"github.com/GermanBionicSystems/scd30/scd30"
	"github.com/GermanBionicSystems/scd30/screen1d"
	"github.com/GermanBionicSystems/scd30/sensor"
	"github.com/GermanBionicSystems/scd30/sensor/sensorprom"
)

func mainImpl() error {
	busName := flag.String("b", "", "I²C bus to use")
	addr := flag.Uint("a", uint(scd30.SensorAddress), "I²C address")
	id := flag.Int("id", 0, "base sensor id of the events")
	interval := flag.Duration("interval", 2*time.Second, "measurement interval, 2s to 1800s")
	pressure := flag.Int("pressure", 0, "ambient pressure in mbar for CO2 compensation, 0 to disable")
	asc := flag.Bool("asc", true, "enable automatic self calibration")
	fixed := flag.Bool("fixed", false, "decode measurements as fixed point instead of float")
	reset := flag.Bool("reset", false, "soft reset the sensor before reading")
	count := flag.Int("n", 0, "number of readings, 0 for no limit")
	httpAddr := flag.String("http", "", "serve Prometheus metrics on this address, e.g. :9130")
	png := flag.String("png", "", "render each reading to this PNG file")
	bar := flag.Int("bar", 0, "width of a CO2 level bar in the terminal, 0 to disable")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	b, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer b.Close()

	opts := scd30.DefaultOpts
	opts.SensorID = int32(*id)
	opts.Interval = *interval
	opts.AmbientPressure = physic.Pressure(*pressure) * 100 * physic.Pascal
	opts.SelfCalibration = *asc
	if *fixed {
		opts.Decode = scd30.DefaultFixedPoint
	}
	dev, err := scd30.NewI2C(b, uint16(*addr), &opts)
	if err != nil {
		return err
	}
	log.Printf("%s decode=%s", dev, opts.Decode)
	if *reset {
		if err := dev.Reset(); err != nil {
			return err
		}
	}
	if major, minor, err := dev.FirmwareVersion(); err == nil {
		log.Printf("firmware %d.%d", major, minor)
	}

	if *httpAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(sensorprom.New("scd30", dev))
		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			log.Fatal(http.ListenAndServe(*httpAddr, nil))
		}()
	}

	var screen *screen1d.Dev
	if *bar > 0 {
		screen = screen1d.New(&screen1d.Opts{X: *bar})
		defer screen.Halt()
	}

	descs := dev.Descriptors()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for n := 0; *count == 0 || n < *count; {
		ready, err := dev.DataReady()
		if err != nil {
			log.Print(err)
		}
		if ready {
			events, err := dev.Events(time.Now)
			if err != nil {
				log.Print(err)
			} else {
				n++
				show(events, descs, screen, *png)
			}
		}
		select {
		case <-sig:
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func show(events []sensor.Event, descs []sensor.Descriptor, screen *screen1d.Dev, png string) {
	if screen != nil {
		for ix, e := range events {
			if e.Kind == sensor.KindCO2 {
				if err := screen.Show(e, descs[ix]); err != nil {
					log.Print(err)
				}
			}
		}
	} else {
		for _, e := range events {
			fmt.Printf("%s  ", readout.Format(e))
		}
		fmt.Println()
	}
	if png != "" {
		if err := readout.SavePNG(png, events, descs, nil); err != nil {
			log.Print(err)
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "scd30: %s.\n", err)
		os.Exit(1)
	}
}
