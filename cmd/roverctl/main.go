// Command roverctl is a host-side console for the rover's HTTP interface.
//
//	roverctl [-addr host:port] status
//	roverctl [-addr host:port] forward|backward|left|right|stop
//	roverctl [-addr host:port] auto on|off
//	roverctl [-addr host:port] [-interval 1s] [-guard] watch
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RoverCore/internal/client"
	"RoverCore/internal/model"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "rover address")
	timeout := flag.Duration("timeout", 3*time.Second, "per-request timeout")
	interval := flag.Duration("interval", time.Second, "poll interval for watch")
	guard := flag.Bool("guard", false, "watch: send stop when a safety alert asks for it")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] status|forward|backward|left|right|stop|auto on|off|watch\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	c := client.New(*addr, *timeout)

	var err error
	switch verb := flag.Arg(0); verb {
	case "status":
		err = status(ctx, c)
	case "auto":
		if flag.NArg() != 2 || (flag.Arg(1) != "on" && flag.Arg(1) != "off") {
			log.Fatalf("usage: auto on|off")
		}
		err = c.SetAutonomous(ctx, flag.Arg(1) == "on")
	case "watch":
		err = watch(ctx, c, *interval, *guard)
	default:
		cmd, perr := model.ParseDriveCommand(verb)
		if perr != nil {
			flag.Usage()
			os.Exit(2)
		}
		err = c.Drive(ctx, cmd)
	}
	if err != nil && ctx.Err() == nil {
		log.Fatalf("[roverctl] %v", err)
	}
}

func status(ctx context.Context, c *client.Client) error {
	s, err := c.Telemetry(ctx)
	if err != nil {
		return err
	}
	printSnapshot(s)
	for _, a := range client.Assess(s, client.DefaultLimits()) {
		fmt.Printf("%-8s %s\n", a.Severity, a.Message)
	}
	return nil
}

func watch(ctx context.Context, c *client.Client, every time.Duration, guard bool) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		s, err := c.Telemetry(ctx)
		if err != nil {
			log.Printf("[roverctl] telemetry: %v", err)
		} else {
			alerts := client.Assess(s, client.DefaultLimits())
			fmt.Printf("%s dist=%.1fcm temp=%s hum=%s mode=%s alerts=%d\n",
				time.Now().Format("15:04:05"), s.Distance, orNA(s.Temperature), orNA(s.Humidity), s.Mode, len(alerts))
			for _, a := range alerts {
				fmt.Printf("  %-8s %s\n", a.Severity, a.Message)
			}
			if guard && client.ShouldStop(alerts) {
				log.Printf("[roverctl] safety stop")
				if err := c.Drive(ctx, model.Stop); err != nil {
					log.Printf("[roverctl] stop: %v", err)
				}
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printSnapshot(s model.SensorSnapshot) {
	fmt.Printf("Distance:    %.1f cm\n", s.Distance)
	fmt.Printf("IR:          %s\n", onOff(s.Obstacle, model.ObjectDetected, model.Clear))
	fmt.Printf("Motion:      %s\n", onOff(s.Motion, model.MotionDetected, model.NoMotion))
	fmt.Printf("Temperature: %s °C\n", orNA(s.Temperature))
	fmt.Printf("Humidity:    %s %%\n", orNA(s.Humidity))
	fmt.Printf("Flame:       %s\n", onOff(s.Flame, model.FlameDetected, model.NoFlame))
	fmt.Printf("Accel:       %s\n", model.FormatVector(s.Accel))
	fmt.Printf("Gyro:        %s\n", model.FormatVector(s.Gyro))
	fmt.Printf("Mode:        %s\n", s.Mode)
}

func onOff(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

func orNA(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}
