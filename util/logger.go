package util

import (
	"fmt"
	"io"
	"log"
	"os"
)

var Logger *log.Logger = log.Default()

// InitLogger routes the run log to stdout and a per-run file.
func InitLogger(tag string) {
	fname := fmt.Sprintf("run_%s.log", tag)
	file, _ := os.Create(fname)
	mw := io.MultiWriter(file, os.Stdout)
	Logger = log.New(mw, "", log.LstdFlags)
}
