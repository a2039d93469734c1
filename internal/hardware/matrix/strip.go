package matrix

import (
	"fmt"
	"log/slog"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// spiStrip is an nrzled chain driven through an SPI port's MOSI line.
type spiStrip struct {
	dev  *nrzled.Dev
	port spi.PortCloser
}

func (that *spiStrip) Write(pixels []byte) (int, error) {
	return that.dev.Write(pixels)
}

func (that *spiStrip) Halt() error {
	var err error

	if haltErr := that.dev.Halt(); haltErr != nil {
		err = multierr.Append(err, haltErr)
	}

	if closeErr := that.port.Close(); closeErr != nil {
		err = multierr.Append(err, closeErr)
	}

	return err
}

// OpenStrips - opens one WS2812B chain per SPI port, in board row order.
func OpenStrips(logger *slog.Logger, ports []string) ([]Strip, error) {
	if len(ports) != PanelsPerStrip {
		return nil, fmt.Errorf("%w: got %d ports", ErrStripCount, len(ports))
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not initialize periph host drivers: %w", err)
	}

	strips := make([]Strip, 0, len(ports))

	for _, name := range ports {
		strip, err := openStrip(name)
		if err != nil {
			for _, opened := range strips {
				_ = opened.Halt()
			}

			return nil, err
		}

		logger.Info("led strip opened", "port", name, "pixels", PixelsPerStrip)
		strips = append(strips, strip)
	}

	return strips, nil
}

func openStrip(name string) (*spiStrip, error) {
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port %s: %w", name, err)
	}

	opts := nrzled.DefaultOpts
	opts.NumPixels = PixelsPerStrip
	opts.Channels = bytesPerPixel

	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		_ = port.Close()

		return nil, fmt.Errorf("could not start led strip on %s: %w", name, err)
	}

	return &spiStrip{dev: dev, port: port}, nil
}
