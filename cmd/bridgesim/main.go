// Command bridgesim stands in for the MCU I/O bridge. It creates a socat
// virtual serial pair and answers the bridge protocol on one end with a
// simulated board, so the rover can run its bridge backend on the other end.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RoverCore/internal/device"
	"RoverCore/internal/util"
)

func main() {
	hostLink := flag.String("host", "/tmp/rover-bridge", "link the rover opens (board.device)")
	mcuLink := flag.String("mcu", "/tmp/rover-bridge-mcu", "link this simulator serves")
	baud := flag.Int("baud", 115200, "baud rate")
	animate := flag.Duration("animate", time.Second, "drift interval for simulated readings (0 disables)")
	pir := flag.Int("pir", 35, "PIR pin toggled by the animation")
	flag.Parse()
	util.SetupLogger("info")

	socat := util.NewSocatManager()
	defer socat.Cleanup()
	if err := socat.CreatePair(*hostLink, *mcuLink, 3*time.Second); err != nil {
		log.Printf("[bridgesim] %v", err)
		return
	}

	port, err := device.NewSerialDevice(*mcuLink, *baud)
	if err != nil {
		log.Printf("[bridgesim] %v", err)
		return
	}
	defer func() {
		if cerr := port.Close(); cerr != nil {
			log.Printf("[bridgesim] warning: close serial err: %v", cerr)
		}
	}()

	board := device.NewSimBoard()
	stop := make(chan struct{})
	if *animate > 0 {
		go board.Animate(stop, *animate, *pir)
	}

	done := make(chan error, 1)
	go func() { done <- device.NewEmulator("bridgesim", board).Serve(port, stop) }()
	log.Printf("[bridgesim] ready: point board.device at %s", *hostLink)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
		close(stop)
		<-done
	case err := <-done:
		close(stop)
		if err != nil {
			log.Printf("[bridgesim] %v", err)
		}
	}
	log.Printf("[bridgesim] stopped")
}
