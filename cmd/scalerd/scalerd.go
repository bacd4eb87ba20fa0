package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/viper"
	"github.com/synapps-go/scaler"
	"gopkg.in/natefinch/lumberjack.v2"
)

var githash = "githash not computed"
var buildDate = "build date not computed"

// makeFileExist checks that dir/filename exists, and creates the directory
// and file if it doesn't.
func makeFileExist(dir, filename string) (string, error) {
	// Replace 1 instance of "$HOME" in the path with the actual home directory.
	if strings.Contains(dir, "$HOME") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = strings.Replace(dir, "$HOME", home, 1)
	}

	// Create directory <path>, if needed
	if _, err := os.Stat(dir); err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		err2 := os.MkdirAll(dir, 0775)
		if err2 != nil {
			return "", err2
		}
	}

	// Create an empty file path/filename, if it doesn't exist.
	fullname := path.Join(dir, filename)
	_, err := os.Stat(fullname)
	if os.IsNotExist(err) {
		f, err2 := os.OpenFile(fullname, os.O_WRONLY|os.O_CREATE, 0664)
		if err2 != nil {
			return "", err2
		}
		f.Close()
	}
	return fullname, nil
}

// setupViper sets up the viper configuration manager: says where to find config
// files and the filename and suffix. Sets some defaults.
func setupViper() error {
	viper.SetDefault("verbose", false)
	viper.SetDefault("prefix", "SIM:scaler1")
	viper.SetDefault("portbase", 4500)
	viper.SetDefault("publishperiod", "1s")
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.clientid", "scalerd")
	viper.SetDefault("mqtt.topic", "v1/devices/me/telemetry")

	HOME, err := os.UserHomeDir()
	if err != nil {
		fmt.Printf("Error finding User Home Dir: %s\n", err)
	}
	dotScalerd := filepath.Join(HOME, ".scalerd")
	const filename string = "config"
	const suffix string = ".yaml"
	if _, err := makeFileExist(dotScalerd, filename+suffix); err != nil {
		return err
	}

	viper.SetConfigName(filename)
	viper.AddConfigPath(filepath.FromSlash("/etc/scalerd"))
	viper.AddConfigPath(dotScalerd)
	viper.AddConfigPath(".")
	err = viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %s", err)
	}
	return nil
}

func startLogger(pfname string) *log.Logger {
	probFile, err := os.OpenFile(pfname, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		msg := fmt.Sprintf("Could not open log file '%s'", pfname)
		panic(msg)
	}
	probLogger := log.New(probFile, "", log.LstdFlags)
	probLogger.SetOutput(&lumberjack.Logger{
		Filename:   pfname,
		MaxSize:    10,   // megabytes after which new file is created
		MaxBackups: 4,    // number of backups
		MaxAge:     180,  // days
		Compress:   true, // whether to gzip the backups
	})
	return probLogger
}

// riggedSimulator builds the simulated record the daemon serves, applying
// any channel names and rates from the configuration. Config keys are
// channel numbers as strings ("2": "mon").
func riggedSimulator(prefix string) (*scaler.SimulatedScaler, error) {
	sim := scaler.NewSimulatedScaler(prefix)
	sim.SetChannelName(1, "time")
	for key, name := range viper.GetStringMapString("channelnames") {
		num, err := strconv.Atoi(key)
		if err != nil || num < 1 || num > scaler.NumChannels {
			return nil, fmt.Errorf("bad channelnames key %q: want a channel number 1-%d", key, scaler.NumChannels)
		}
		sim.SetChannelName(num, name)
	}
	for key, rate := range viper.GetStringMapString("channelrates") {
		num, err := strconv.Atoi(key)
		if err != nil || num < 1 || num > scaler.NumChannels {
			return nil, fmt.Errorf("bad channelrates key %q: want a channel number 1-%d", key, scaler.NumChannels)
		}
		cps, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			return nil, fmt.Errorf("bad channelrates value %q for channel %d", rate, num)
		}
		sim.SetChannelRate(num, cps)
	}
	return sim, nil
}

func main() {
	scaler.Build.Githash = githash
	scaler.Build.Date = buildDate

	printVersion := flag.Bool("version", false, "print version and quit")
	flag.Parse()

	if *printVersion {
		fmt.Printf("This is scalerd version %s\n", scaler.Build.Version)
		fmt.Printf("Git commit hash: %s\n", githash)
		fmt.Printf("Build time: %s\n", buildDate)
		fmt.Printf("Built on go version %s\n", runtime.Version())
		os.Exit(0)
	}

	banner := fmt.Sprintf("\nThis is scalerd version %s (git commit %s)\n", scaler.Build.Version, githash)
	fmt.Print(banner)

	// Start logging problems to a rotating log file.
	HOME, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	logdir := filepath.Join(HOME, ".scalerd", "logs")
	problemname, err := makeFileExist(logdir, "problems.log")
	if err != nil {
		panic(err)
	}
	scaler.ProblemLogger = startLogger(problemname)
	fmt.Printf("Logging problems to %s\n\n", problemname)

	// Find config file, creating it if needed, and read it.
	if err := setupViper(); err != nil {
		panic(err)
	}

	prefix := viper.GetString("prefix")
	sim, err := riggedSimulator(prefix)
	if err != nil {
		log.Fatal(err)
	}

	mcs, err := scaler.NewMultiChannelScaler(sim, prefix, scaler.ProblemLogger)
	if err != nil {
		log.Fatalf("could not build scaler device for %q: %v", prefix, err)
	}
	if viper.GetBool("verbose") {
		fmt.Println(spew.Sdump(mcs))
	}

	portbase := viper.GetInt("portbase")
	control := scaler.NewScalerControl(mcs, scaler.ProblemLogger)
	monitor, err := scaler.NewMonitor(control.ReadSnapshot, portbase+1,
		viper.GetDuration("publishperiod"), scaler.ProblemLogger)
	if err != nil {
		log.Fatalf("could not start reading publisher: %v", err)
	}
	if viper.GetBool("mqtt.enabled") {
		sink, err := scaler.NewTelemetrySink(viper.GetString("mqtt.broker"),
			viper.GetString("mqtt.clientid"), viper.GetString("mqtt.topic"),
			scaler.ProblemLogger)
		if err != nil {
			log.Fatalf("could not connect telemetry sink: %v", err)
		}
		defer sink.Close()
		monitor.AddSink(sink)
	}
	go monitor.Run()
	defer monitor.Stop()

	fmt.Printf("Serving %q: JSON-RPC on port %d, readings on port %d\n",
		prefix, portbase, portbase+1)
	if err := scaler.RunRPCServer(control, portbase); err != nil {
		log.Fatal(err)
	}
}
