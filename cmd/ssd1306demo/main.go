// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ssd1306demo draws a demo scene, or a picture, on a SSD1306 OLED panel.
//
// With --dry-run no hardware is touched; combine it with --preview to see the
// frame in the terminal.
package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/oled/i2cdev"
	"github.com/GermanBionicSystems/oled/ssd1306"
	"github.com/GermanBionicSystems/oled/ssd1306/gfx"
	"github.com/GermanBionicSystems/oled/webview"
)

var (
	busName     = flag.String("bus", "", "I²C bus to use")
	panel       = flag.String("panel", "128x64", "panel size: 128x32, 128x64 or 96x16")
	invert      = flag.Bool("invert", false, "invert the display")
	externalVCC = flag.Bool("external-vcc", false, "panel powered by an external VCC")
	addr        = flag.Uint16("addr", 0, "I²C address, 0 selects the default for the panel")
	orientation = flag.String("orientation", "portrait-tall", "landscape, landscape-wide, portrait or portrait-tall")
	brightness  = flag.Int("brightness", -1, "brightness in percent, negative keeps the default")
	imagePath   = flag.String("image", "", "picture to show instead of the demo scene")
	text        = flag.String("text", "periph", "text of the demo scene")
	snapshotTo  = flag.String("snapshot", "", "save the frame as a PNG file")
	scale       = flag.Int("scale", 4, "magnification of the snapshot")
	preview     = flag.Bool("preview", false, "print the frame in the terminal")
	dryRun      = flag.Bool("dry-run", false, "log bus transactions instead of using hardware")
	scroll      = flag.String("scroll", "", "scroll the frame: left, right, up-left or up-right")
	listen      = flag.String("listen", "", "serve a live view of the panel over HTTP on this address")
	webScale    = flag.Int("web-scale", 4, "magnification of the live view")
	verbose     = flag.Bool("verbose", false, "log at debug level")
)

type config struct {
	bus         string
	dim         ssd1306.Dimension
	power       ssd1306.PowerMode
	invert      bool
	addr        uint16
	orientation gfx.Orientation
	brightness  int
	image       string
	text        string
	snapshot    string
	scale       int
	preview     bool
	dryRun      bool
	scroll      ssd1306.ScrollDirection
	listen      string
	webScale    int
	verbose     bool
}

func parseDimension(s string) (ssd1306.Dimension, error) {
	for _, d := range []ssd1306.Dimension{ssd1306.W128xH32, ssd1306.W128xH64, ssd1306.W96xH16} {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, errors.Errorf("unknown panel %q", s)
}

func parseOrientation(s string) (gfx.Orientation, error) {
	switch strings.ToLower(s) {
	case "landscape":
		return gfx.Landscape, nil
	case "landscape-wide":
		return gfx.LandscapeWide, nil
	case "portrait":
		return gfx.Portrait, nil
	case "portrait-tall":
		return gfx.PortraitTall, nil
	}
	return 0, errors.Errorf("unknown orientation %q", s)
}

// parseScroll returns 0 when s is empty.
func parseScroll(s string) (ssd1306.ScrollDirection, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "left":
		return ssd1306.ScrollLeft, nil
	case "right":
		return ssd1306.ScrollRight, nil
	case "up-left":
		return ssd1306.ScrollUpLeft, nil
	case "up-right":
		return ssd1306.ScrollUpRight, nil
	}
	return 0, errors.Errorf("unknown scroll direction %q", s)
}

func parseFlags() (config, error) {
	cfg := config{
		bus:        *busName,
		power:      ssd1306.SwitchCapVCC,
		invert:     *invert,
		addr:       *addr,
		brightness: *brightness,
		image:      *imagePath,
		text:       *text,
		snapshot:   *snapshotTo,
		scale:      *scale,
		preview:    *preview,
		dryRun:     *dryRun,
		listen:     *listen,
		webScale:   *webScale,
		verbose:    *verbose,
	}
	if *externalVCC {
		cfg.power = ssd1306.ExternalVCC
	}
	var err error
	if cfg.dim, err = parseDimension(*panel); err != nil {
		return cfg, err
	}
	if cfg.orientation, err = parseOrientation(*orientation); err != nil {
		return cfg, err
	}
	if cfg.scroll, err = parseScroll(*scroll); err != nil {
		return cfg, err
	}
	if cfg.brightness > 100 {
		return cfg, errors.Errorf("brightness %d above 100", cfg.brightness)
	}
	return cfg, nil
}

func newLogger(cfg config) (*zap.Logger, error) {
	c := zap.NewDevelopmentConfig()
	if !cfg.verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return c.Build()
}

// newBus opens the I²C bus, or a logging stand-in on dry runs.
func newBus(cfg config, log *zap.Logger, lc fx.Lifecycle) (ssd1306.Bus, error) {
	if cfg.dryRun {
		return &dryRunBus{log: log.Named("bus")}, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing host")
	}
	b, err := i2creg.Open(cfg.bus)
	if err != nil {
		return nil, errors.Wrapf(err, "opening bus %q", cfg.bus)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return b.Close()
		},
	})
	a := cfg.addr
	if a == 0 {
		_, h, _, _ := cfg.dim.Size()
		a = ssd1306.DefaultAddr(h)
	}
	return i2cdev.New(b, a), nil
}

func newDisplay(cfg config, b ssd1306.Bus, log *zap.Logger, lc fx.Lifecycle) (*ssd1306.Dev, error) {
	dev, err := ssd1306.New(b, &ssd1306.Opts{
		Dimension: cfg.dim,
		Invert:    cfg.invert,
		Power:     cfg.power,
		Logger:    log.Named("ssd1306"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing display")
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := dev.Halt(); err != nil {
				log.Warn("halting display", zap.Error(err))
			}
			return dev.Close()
		},
	})
	return dev, nil
}

func newContext(cfg config, dev *ssd1306.Dev, lc fx.Lifecycle) *gfx.Context {
	c := gfx.New(dev)
	c.SetOrientation(cfg.orientation)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			c.Release()
			return nil
		},
	})
	return c
}

// newMirror returns nil unless a listen address is set.
func newMirror(cfg config, log *zap.Logger, lc fx.Lifecycle) (*webview.Dev, error) {
	if cfg.listen == "" {
		return nil, nil
	}
	w, h, _, _ := cfg.dim.Size()
	m, err := webview.New(&webview.Opts{Width: w, Height: h, Scale: cfg.webScale, Logger: log.Named("web")})
	if err != nil {
		return nil, errors.Wrap(err, "creating live view")
	}
	srv := &http.Server{Addr: cfg.listen, Handler: m}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != http.ErrServerClosed {
					log.Error("serving live view", zap.Error(err))
				}
			}()
			log.Info("live view", zap.String("url", "http://"+cfg.listen+"/"))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = m.Halt()
			return srv.Shutdown(ctx)
		},
	})
	return m, nil
}

func main() {
	flag.Parse()
	cfg, err := parseFlags()
	if err != nil {
		os.Stderr.WriteString("ssd1306demo: " + err.Error() + "\n")
		flag.Usage()
		os.Exit(2)
	}
	fx.New(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newBus,
			newDisplay,
			newContext,
			newMirror,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(run),
	).Run()
}
