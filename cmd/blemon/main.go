// blemon drives a Bluetooth LE controller over HCI: it scans for
// nearby advertisers, advertises as an iBeacon and queries controller
// state.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/larkwire/ble"
	"github.com/larkwire/ble/adv"
	"github.com/larkwire/ble/cache"
	"github.com/larkwire/ble/hci"
)

func main() {
	app := cli.NewApp()
	app.Name = "blemon"
	app.Usage = "scan for BLE advertisers and drive a controller's advertising"
	app.Version = "0.2.0"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "device, d",
			Value: -1,
			Usage: "HCI device id, -1 picks the first available",
		},
		cli.StringFlag{
			Name:  "h4-uart",
			Usage: "serial device of an H4 controller, overrides --device",
		},
		cli.StringFlag{
			Name:  "h4-socket",
			Usage: "host:port of an H4 TCP bridge, overrides --device",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "turn on trace logging",
		},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("debug") {
			ble.SetLogLevelMax()
		}
		return nil
	}
	app.Commands = []cli.Command{
		cli.Command{
			Name:  "scan",
			Usage: "Print advertising reports as they arrive",
			Flags: []cli.Flag{
				cli.DurationFlag{
					Name:  "duration, du",
					Usage: "how long to scan, 0 scans until interrupted",
				},
				cli.BoolFlag{
					Name:  "allow-dup",
					Usage: "report every advertisement instead of one per device",
				},
				cli.BoolFlag{
					Name:  "json",
					Usage: "print reports as JSON",
				},
				cli.StringFlag{
					Name:  "cache",
					Usage: "store the latest report per device in this file",
				},
			},
			Action: scanCommand,
		},
		cli.Command{
			Name:  "beacon",
			Usage: "Advertise as an iBeacon",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "uuid",
					Value: "e2c56db5-dffb-48d2-b060-d0f5a71096e0",
					Usage: "proximity UUID",
				},
				cli.IntFlag{
					Name:  "major",
					Value: 1,
				},
				cli.IntFlag{
					Name:  "minor",
					Value: 2,
				},
				cli.IntFlag{
					Name:  "power",
					Value: -59,
					Usage: "measured power at 1m, dBm",
				},
				cli.StringFlag{
					Name:  "name",
					Usage: "local name answered in the scan response",
				},
				cli.DurationFlag{
					Name:  "duration, du",
					Usage: "how long to advertise, 0 advertises until interrupted",
				},
			},
			Action: beaconCommand,
		},
		cli.Command{
			Name:   "info",
			Usage:  "Print the controller address and advertising tx power",
			Action: infoCommand,
		},
		cli.Command{
			Name:   "rand",
			Usage:  "Print 8 random bytes from the controller",
			Action: randCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cmdContext returns a context cancelled by SIGINT/SIGTERM, and by the
// duration when one is given.
func cmdContext(du time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	if du > 0 {
		ctx, cancel = context.WithTimeout(ctx, du)
	}
	ble.WithSigHandler(ctx, cancel)
	return ctx, cancel
}

func openAdapter(ctx context.Context, c *cli.Context) (*hci.LEAdapter, error) {
	opt := ble.OptTransportHCISocket(c.GlobalInt("device"))
	if addr := c.GlobalString("h4-socket"); addr != "" {
		opt = ble.OptTransportH4Socket(addr, 5*time.Second)
	}
	if path := c.GlobalString("h4-uart"); path != "" {
		opt = ble.OptTransportH4Uart(path)
	}

	a, err := hci.NewAdapter(opt)
	if err != nil {
		return nil, err
	}
	if err := a.Init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return hci.NewLEAdapter(a), nil
}

func scanCommand(c *cli.Context) error {
	ctx, cancel := cmdContext(c.Duration("duration"))
	defer cancel()

	la, err := openAdapter(ctx, c)
	if err != nil {
		return err
	}
	defer la.Close()

	if err := la.MaskAdvertisingReports(ctx); err != nil {
		return err
	}
	if err := la.Scan(ctx, c.Bool("allow-dup")); err != nil {
		return err
	}

	var store ble.ReportCache
	if f := c.String("cache"); f != "" {
		store = cache.New(f)
	}

	rs, err := la.ReportStream()
	if err != nil {
		return err
	}

	var scanErr error
	for {
		r, err := rs.Next(ctx)
		if err != nil {
			if de, ok := err.(*hci.DecodeError); ok {
				ble.GetLogger().Warnf("skipping report: %v", de)
				continue
			}
			if ctx.Err() != nil {
				break
			}
			scanErr = err
			break
		}

		printReport(r, c.Bool("json"))
		if store != nil {
			if err := store.Store(r, true); err != nil {
				ble.GetLogger().Warnf("can't cache report: %v", err)
			}
		}
	}
	rs.Close()

	stop, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := la.StopScanning(stop); err != nil && scanErr == nil {
		scanErr = err
	}
	return scanErr
}

func printReport(r ble.Report, asJSON bool) {
	if asJSON {
		out, err := jsoniter.MarshalToString(r.ToMap())
		if err != nil {
			ble.GetLogger().Errorf("can't marshal report: %v", err)
			return
		}
		fmt.Println(out)
		return
	}

	line := fmt.Sprintf("[%s] rssi %4d", r.Addr, r.RSSI)
	if p, err := adv.NewRawPacket(r.Data); err == nil {
		if n := p.LocalName(); n != "" {
			line += " name " + n
		}
	}
	fmt.Printf("%s data [% X]\n", line, r.Data)
}

func beaconCommand(c *cli.Context) error {
	u, err := ble.Parse(c.String("uuid"))
	if err != nil {
		return errors.Wrap(err, "invalid uuid")
	}
	if u.Len() != 16 {
		return fmt.Errorf("proximity uuid must be 128 bit")
	}

	ctx, cancel := cmdContext(c.Duration("duration"))
	defer cancel()

	la, err := openAdapter(ctx, c)
	if err != nil {
		return err
	}
	defer la.Close()

	p, err := adv.NewPacket(
		adv.Flags(0x06),
		adv.IBeacon(u, uint16(c.Int("major")), uint16(c.Int("minor")), int8(c.Int("power"))),
	)
	if err != nil {
		return err
	}

	sr := []byte{}
	if name := c.String("name"); name != "" {
		srp, err := adv.NewPacket(adv.CompleteName(name))
		if err != nil {
			return err
		}
		sr = srp.Bytes()
	}

	if err := la.SetAdvertisement(ctx, p.Bytes(), sr); err != nil {
		return err
	}
	if err := la.Advertise(ctx); err != nil {
		return err
	}

	fmt.Printf("%s advertising %s major %d minor %d\n", la.Addr(), u, c.Int("major"), c.Int("minor"))
	<-ctx.Done()

	stop, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	return la.StopAdvertising(stop)
}

func infoCommand(c *cli.Context) error {
	ctx, cancel := cmdContext(10 * time.Second)
	defer cancel()

	la, err := openAdapter(ctx, c)
	if err != nil {
		return err
	}
	defer la.Close()

	pwr, err := la.ReadAdvertisingTxPower(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("address: %s\n", la.Addr())
	fmt.Printf("advertising tx power: %d dBm\n", pwr)
	return nil
}

func randCommand(c *cli.Context) error {
	ctx, cancel := cmdContext(10 * time.Second)
	defer cancel()

	la, err := openAdapter(ctx, c)
	if err != nil {
		return err
	}
	defer la.Close()

	b, err := la.Rand(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("% X\n", b)
	return nil
}
