package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"livecam/config"
	"livecam/util"
	"livecam/video"
	"livecam/video/process"
	"livecam/video/sink"
	"livecam/video/source"
)

var (
	configPath  = flag.String("config", "", "JSON configuration file. Defaults to $LIVECAM_CONFIG.")
	logFile     = flag.String("log_file", "", "Also write logs to this file, rotated by size.")
	metricsAddr = flag.String("metrics_addr", "", "If set, serve Prometheus metrics on this address.")
	debug       = flag.Bool("debug", false, "Enable debug logging.")
)

func init() {
	// highgui windows must be driven from the main OS thread.
	runtime.LockOSThread()
}

func newDetector(m config.ModelConfig) (process.Detector, error) {
	switch m.Kind {
	case config.ModelYOLO:
		return process.NewYOLO(m.Path, m.CUDA)
	case config.ModelMobileNetSSD:
		return process.NewMobileNetSSD(m.Prototxt, m.Path, m.CUDA)
	}
	return nil, fmt.Errorf("unknown model kind %q", m.Kind)
}

func pipelineOptions(c *config.Config) video.Options {
	return video.Options{
		TargetFPS:         c.TargetFPS,
		Stride:            c.InferenceStride,
		Interval:          c.InferenceInterval(),
		CaptureMaxWidth:   c.CaptureMaxWidth,
		InferenceMaxWidth: c.InferenceMaxWidth,
		Confidence:        c.Confidence,
		RefreshPeriod:     c.RefreshPeriod(),
		JoinTimeout:       c.JoinTimeout(),
		Idle:              c.Idle(),
		Yield:             c.Yield(),
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Infof("Serving metrics on %s", addr)
	log.Errorln(http.ListenAndServe(addr, handlers.CombinedLoggingHandler(log.StandardLogger().Writer(), mux)))
}

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Println("Unable to read .env:", err)
		os.Exit(1)
	}

	logs := util.SetupLogging(*logFile, *debug)
	defer logs.Close()

	if flag.NArg() < 1 {
		fmt.Println("How to run:\n\tlivecam [flags] [stream URL]")
		fmt.Println("Example:\n\tlivecam http://192.168.1.70:4747/video")
		flag.PrintDefaults()
		os.Exit(1)
		return
	}
	uri := flag.Arg(0)

	if err := source.ValidateURL(uri); err != nil {
		log.Fatalf("Refusing to start: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	det, err := newDetector(cfg.Model)
	if err != nil {
		log.Fatalf("Failed to load detector: %v", err)
	}
	defer det.Close()

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	window := sink.NewWindow(cfg.WindowTitle)
	defer window.Close()

	open := source.VideoCaptureOpener(source.VideoCaptureOptions{
		Width:           cfg.CaptureMaxWidth,
		MaxReadFailures: cfg.MaxReadFailures,
	})
	p, err := video.Launch(uri, open, det, window, pipelineOptions(cfg))
	if err != nil {
		log.Errorf("Failed to start pipeline: %v", err)
		return
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Println("Caught signal", sig)
		window.Post(sink.CommandClose)
	}()

	window.Run()
	p.Stop()

	st := p.Stats()
	log.WithFields(log.Fields{
		"captured":        st.Captured,
		"inferences":      st.Inferences,
		"detector_errors": st.DetectorErrors,
		"painted":         st.Painted,
		"raw_drops":       st.Raw.Drops,
	}).Info("Exiting")
}
