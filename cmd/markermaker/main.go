/*
DESCRIPTION
  markermaker renders ArUco markers to bordered, labelled PNG files ready for
  printing.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// markermaker writes aruco_marker_<id>.png files for a range of marker IDs.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/fiducial/marker"
)

// Defaults.
const (
	defaultFirst = 1
	defaultCount = 20
	defaultSize  = 200 // Pixels.
)

const pkg = "markermaker: "

func main() {
	var (
		dict    = flag.String("dict", marker.DefaultVariant.String(), "marker dictionary")
		first   = flag.Int("first", defaultFirst, "first marker ID")
		count   = flag.Int("count", defaultCount, "number of markers")
		size    = flag.Int("size", defaultSize, "marker side in pixels, excluding the border")
		dir     = flag.String("dir", ".", "output directory")
		list    = flag.Bool("list", false, "list the marker dictionaries and exit")
		verbose = flag.Bool("v", false, "log debug messages")
	)
	flag.Parse()

	if *list {
		for _, v := range marker.Variants() {
			fmt.Printf("%s\t%d IDs\n", v, v.Capacity())
		}
		return
	}

	level := int8(logging.Info)
	if *verbose {
		level = logging.Debug
	}
	log := logging.New(level, os.Stderr, false)

	v, err := marker.ParseVariant(*dict)
	if err != nil {
		log.Fatal(pkg+"invalid dictionary", "error", err.Error())
	}
	if *count < 1 || *size < 1 {
		log.Fatal(pkg+"count and size must be positive", "count", *count, "size", *size)
	}

	paths, err := marker.Batch(log, *dir, v, *first, *count, *size)
	if err != nil {
		log.Fatal(pkg+"could not generate markers", "error", err.Error(), "written", len(paths))
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}
