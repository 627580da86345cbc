// Package systeminfo describes the host a program is running on.
package systeminfo

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/dustin/go-humanize"
)

// Info describes the current host and process.
type Info struct {
	Arch        string
	BuildInfo   string
	CPUs        int
	Executable  string
	GoVersion   string
	Goroutines  int
	Hostname    string
	MemoryAlloc uint64
	MemorySys   uint64
	OS          string
}

// Collect returns information about the current host and process.
// Values which can not be determined are left empty.
func Collect() Info {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	x := Info{
		Arch:        runtime.GOARCH,
		CPUs:        runtime.NumCPU(),
		GoVersion:   runtime.Version(),
		Goroutines:  runtime.NumGoroutine(),
		MemoryAlloc: m.Alloc,
		MemorySys:   m.Sys,
		OS:          runtime.GOOS,
	}
	x.Hostname, _ = os.Hostname()
	x.Executable, _ = os.Executable()
	if bi, ok := debug.ReadBuildInfo(); ok {
		x.BuildInfo = fmt.Sprintf("%s %s", bi.Main.Path, bi.Main.Version)
	}
	return x
}

// Markdown returns the information as markdown list.
func (x Info) Markdown() string {
	var b strings.Builder
	item := func(name, value string) {
		if value == "" {
			value = "?"
		}
		fmt.Fprintf(&b, "* %s: %s\n", name, value)
	}
	item("OS", fmt.Sprintf("%s/%s", x.OS, x.Arch))
	item("CPU", fmt.Sprintf("%d-threads", x.CPUs))
	item("Memory", fmt.Sprintf("%s allocated, %s from system", humanize.Bytes(x.MemoryAlloc), humanize.Bytes(x.MemorySys)))
	item("Go", x.GoVersion)
	item("Goroutines", humanize.Comma(int64(x.Goroutines)))
	item("Host", x.Hostname)
	item("Executable", x.Executable)
	item("Build", x.BuildInfo)
	return b.String()
}

// Markdown returns information about the current host as markdown list.
func Markdown() string {
	return Collect().Markdown()
}
