package main

import (
	"fmt"
	"net/http"
	"os/exec"
	"strings"

	"github.com/toothbrush/acmd-assets/aem"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"
)

// server resolves the repository coordinates, running --auth-password-cmd if needed.
func (c *cli) server() (aem.Server, error) {
	s := aem.Server{
		Name:     c.ServerName,
		Host:     c.Host,
		Username: c.AuthUsername,
		Password: c.AuthPassword,
	}

	if s.Password == "" && len(c.AuthPasswordCmd) > 0 {
		out, err := exec.Command(c.AuthPasswordCmd[0], c.AuthPasswordCmd[1:]...).Output()
		if err != nil {
			return s, fmt.Errorf("acmd: couldn't execute auth-password-cmd '%v': %w", c.AuthPasswordCmd, err)
		}
		s.Password = strings.Split(string(out), "\n")[0]
	}

	return s, nil
}

// newAPI builds the repository client.  Call stop when done, it flushes the VCR cassette.
func (c *cli) newAPI() (api *aem.API, stop func() error, err error) {
	s, err := c.server()
	if err != nil {
		return nil, nil, err
	}

	api, err = aem.NewAPI(s)
	if err != nil {
		return nil, nil, fmt.Errorf("acmd: API creation failed: %w", err)
	}
	api.Logger = c.log()

	stop = func() error { return nil }
	if c.WithVCR {
		opts := &recorder.Options{
			CassetteName:       c.VCRCassette,
			Mode:               recorder.ModeReplayWithNewEpisodes,
			SkipRequestLatency: true,
			RealTransport:      http.DefaultTransport,
		}
		r, err := recorder.NewWithOptions(opts)
		if err != nil {
			return nil, nil, fmt.Errorf("acmd: couldn't set up go-vcr recording: %w", err)
		}

		// Credentials stay out of the cassette
		hook := func(i *cassette.Interaction) error {
			delete(i.Request.Headers, "Authorization")
			return nil
		}
		r.AddHook(hook, recorder.AfterCaptureHook)
		r.SetReplayableInteractions(true)

		api.Client = r.GetDefaultClient()
		stop = r.Stop
		c.log().Debug("Recording with go-vcr", "cassette", c.VCRCassette)
	}

	return api, stop, nil
}

// closeAPI stops the recorder and reports, without masking an earlier error.
func (c *cli) closeAPI(stop func() error) {
	if err := stop(); err != nil {
		c.log().Warn("Couldn't save go-vcr cassette", "err", err)
	}
}
