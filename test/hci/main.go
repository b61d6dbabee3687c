// Manual smoke tests against a real controller. Not run in CI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/larkwire/ble"
	"github.com/larkwire/ble/adv"
	"github.com/larkwire/ble/hci"
)

var (
	device = flag.Int("device", -1, "hci index, -1 for the first available")
	sd     = flag.Duration("sd", 20*time.Second, "scanning duration")
	test   = flag.String("test", "", "the test to be run")
)

func main() {
	flag.Parse()

	log.Printf("device: hci%v", *device)

	if len(*test) != 0 {
		runTest(*test)
		return
	}

	fmt.Println("no test specified! use --test")
	fmt.Println("available tests are `scan`, `close`, `beacon` and `rand`")
}

func runTest(test string) {
	switch test {
	case "scan":
		runScanTest()
	case "close":
		runCloseTest()
	case "beacon":
		runBeaconTest()
	case "rand":
		runRandTest()
	default:
		fmt.Printf("unknown test %q\n", test)
	}
}

func openAdapter(ctx context.Context) *hci.LEAdapter {
	a, err := hci.NewAdapter(ble.OptTransportHCISocket(*device))
	if err != nil {
		log.Fatalf("can't new adapter : %s", err)
	}
	if err := a.Init(ctx); err != nil {
		log.Fatalf("can't init adapter : %s", err)
	}
	log.Printf("controller address: %s", a.Addr())
	return hci.NewLEAdapter(a)
}

// runScanTest scans for the configured duration and prints every
// report, decode failures included.
func runScanTest() {
	ctx := ble.WithSigHandler(context.WithTimeout(context.Background(), *sd))
	la := openAdapter(ctx)
	defer la.Close()

	if err := la.MaskAdvertisingReports(ctx); err != nil {
		log.Fatalf("can't mask events : %s", err)
	}
	if err := la.Scan(ctx, true); err != nil {
		log.Fatalf("can't scan : %s", err)
	}

	rs, err := la.ReportStream()
	if err != nil {
		log.Fatalf("can't open report stream : %s", err)
	}

	n := 0
	for {
		r, err := rs.Next(ctx)
		if err != nil {
			if _, ok := err.(*hci.DecodeError); ok {
				fmt.Printf("decode error: %v\n", err)
				continue
			}
			rs.Close()
			fmt.Printf("%v reports, stream ended: %v\n", n, err)
			return
		}
		n++
		fmt.Printf("[%s] rssi %4d data [% X]\n", r.Addr, r.RSSI, r.Data)
	}
}

// runCloseTest closes the adapter in the middle of a scan; the pull
// loop has to end instead of hanging.
func runCloseTest() {
	ctx := ble.WithSigHandler(context.WithTimeout(context.Background(), *sd))
	la := openAdapter(ctx)

	if err := la.MaskAdvertisingReports(ctx); err != nil {
		log.Fatalf("can't mask events : %s", err)
	}
	if err := la.Scan(ctx, true); err != nil {
		log.Fatalf("can't scan : %s", err)
	}

	rs, err := la.ReportStream()
	if err != nil {
		log.Fatalf("can't open report stream : %s", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, err := rs.Next(ctx); err != nil {
				fmt.Printf("stream ended: %v\n", err)
				return
			}
		}
	}()

	time.Sleep(5 * time.Second)
	fmt.Println("closing hci after 5 seconds")
	if err := la.Close(); err != nil {
		fmt.Println(err)
	}

	select {
	case <-done:
		fmt.Println("pull loop exited")
	case <-time.After(5 * time.Second):
		log.Fatal("pull loop stuck after close")
	}
}

// runBeaconTest advertises as an iBeacon for five seconds.
func runBeaconTest() {
	ctx := ble.WithSigHandler(context.WithTimeout(context.Background(), 5*time.Second))
	la := openAdapter(ctx)
	defer la.Close()

	u := ble.MustParse("e2c56db5-dffb-48d2-b060-d0f5a71096e0")
	p, err := adv.NewPacket(adv.Flags(0x06), adv.IBeacon(u, 1, 2, -59))
	if err != nil {
		log.Fatalf("can't build adv packet : %s", err)
	}
	if err := la.SetAdvertisingData(ctx, p.Bytes()); err != nil {
		log.Fatalf("can't set adv data : %s", err)
	}

	pwr, err := la.ReadAdvertisingTxPower(ctx)
	if err != nil {
		log.Fatalf("can't read tx power : %s", err)
	}
	fmt.Printf("advertising at %d dBm\n", pwr)

	if err := la.Advertise(ctx); err != nil {
		log.Fatalf("can't advertise : %s", err)
	}
	<-ctx.Done()

	stop, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := la.StopAdvertising(stop); err != nil {
		log.Fatalf("can't stop advertising : %s", err)
	}
	fmt.Println("done")
}

// runRandTest pulls a few random numbers from the controller.
func runRandTest() {
	ctx := ble.WithSigHandler(context.WithTimeout(context.Background(), 10*time.Second))
	la := openAdapter(ctx)
	defer la.Close()

	for i := 0; i < 4; i++ {
		b, err := la.Rand(ctx)
		if err != nil {
			log.Fatalf("can't read random : %s", err)
		}
		fmt.Printf("% X\n", b)
	}
}
