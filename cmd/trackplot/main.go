/*
DESCRIPTION
  trackplot plots the marker positions recorded by tracker.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// trackplot writes PNG plots of recorded marker positions over time, and of
// the paths the markers took, for a recorded tracking session.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/fiducial/record"
)

const pkg = "trackplot: "

func main() {
	var (
		db      = flag.String("db", "", "path of the record database")
		id      = flag.String("session", "", "session to plot; the latest if empty")
		out     = flag.String("out", ".", "output directory")
		list    = flag.Bool("list", false, "list the recorded sessions and exit")
		verbose = flag.Bool("v", false, "log debug messages")
	)
	flag.Parse()

	level := int8(logging.Info)
	if *verbose {
		level = logging.Debug
	}
	log := logging.New(level, os.Stderr, false)

	if *db == "" {
		log.Fatal(pkg + "no database given")
	}
	rec, err := record.Open(*db)
	if err != nil {
		log.Fatal(pkg+"could not open database", "error", err.Error())
	}
	defer rec.Close()

	sessions, err := rec.Sessions()
	if err != nil {
		log.Fatal(pkg+"could not get sessions", "error", err.Error())
	}
	if *list {
		for _, s := range sessions {
			fmt.Printf("%s\t%s\n", s.ID, s.Started.Format("2006-01-02 15:04:05"))
		}
		return
	}

	if *id == "" {
		if len(sessions) == 0 {
			log.Fatal(pkg + "no recorded sessions")
		}
		*id = sessions[len(sessions)-1].ID
	}

	paths, err := plotSession(rec, *id, *out, log)
	if err != nil {
		log.Fatal(pkg+"could not plot session", "session", *id, "error", err.Error())
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}
