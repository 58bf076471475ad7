package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"runtime/debug"
	"time"
)

// AboutReceiver identifies the attached receiver. Firmware fields stay empty
// until the receiver has answered MON-VER.
type AboutReceiver struct {
	Bus        string   `json:"bus"`
	Variant    string   `json:"variant,omitempty"`
	Software   string   `json:"software,omitempty"`
	Hardware   string   `json:"hardware,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
}

type AboutBuild struct {
	GoVersion  string `json:"go_version"`
	ModulePath string `json:"module_path,omitempty"`
	Version    string `json:"version,omitempty"`
	Commit     string `json:"commit,omitempty"`
	Dirty      bool   `json:"dirty,omitempty"`
	BuildTime  string `json:"build_time,omitempty"`
}

type AboutResponse struct {
	Service  string        `json:"service"`
	NowUTC   string        `json:"now_utc"`
	Receiver AboutReceiver `json:"receiver"`
	Build    AboutBuild    `json:"build"`
}

func readBuild() AboutBuild {
	b := AboutBuild{GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return b
	}
	b.ModulePath = bi.Main.Path
	b.Version = bi.Main.Version
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Commit = s.Value
		case "vcs.modified":
			b.Dirty = s.Value == "true"
		case "vcs.time":
			b.BuildTime = s.Value
		}
	}
	return b
}

// AboutHandler reports the build and the receiver behind status.
func AboutHandler(status *Status) http.Handler {
	build := readBuild()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		snap := status.Snapshot(time.Now().UTC())
		fw := snap.GNSS.Firmware
		resp := AboutResponse{
			Service: ServiceName,
			NowUTC:  snap.NowUTC,
			Receiver: AboutReceiver{
				Bus:        snap.Bus,
				Variant:    snap.GNSS.Variant,
				Software:   fw.Software,
				Hardware:   fw.Hardware,
				Extensions: fw.Extensions,
			},
			Build: build,
		}

		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})
}
