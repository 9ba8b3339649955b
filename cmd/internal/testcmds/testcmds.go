// Package testcmds provides fake collaborator binaries for test
// scripts. They end up on PATH via testscript.RunMain.
package testcmds

import (
	"fmt"
	"os"
)

// Downloader mimics enough of yt-dlp's flag surface for the engine,
// depositing files into the working directory named with the default
// output template "%(title)s [%(id)s].%(ext)s". The magic id
// "no-such-id" fails the invocation.
func Downloader() {
	args := os.Args[1:]

	var audio, keepVideo bool
	var id string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--extract-audio":
			audio = true
		case "--keep-video":
			keepVideo = true
		case "--audio-format":
			i++
		case "--":
			if i+1 < len(args) {
				id = args[i+1]
			}
			i++
		}
	}

	switch id {
	case "":
		fmt.Fprintln(os.Stderr, "no media id given")
		os.Exit(1)
	case "no-such-id":
		fmt.Fprintln(os.Stderr, "ERROR: unable to download")
		os.Exit(1)
	}

	title := os.Getenv("FAKE_DOWNLOAD_TITLE")
	if title == "" {
		title = "Fake Song"
	}

	name := fmt.Sprintf("%s [%s]", title, id)
	if !audio || keepVideo {
		writeFile(name + ".webm")
	}
	if audio {
		writeFile(name + ".mp3")
	}
}

// Gain mimics rsgain's custom mode, appending a marker to the target
// file so scripts can observe the call.
func Gain() {
	args := os.Args[1:]
	if len(args) < 2 || args[0] != "custom" {
		fmt.Fprintln(os.Stderr, "usage: rsgain custom [options] file")
		os.Exit(1)
	}

	path := args[len(args)-1]
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()
	if _, err := fmt.Fprint(f, " gained"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func writeFile(name string) {
	if err := os.WriteFile(name, []byte(name), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
