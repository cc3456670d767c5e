package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"orbitrelay.dev/orbitlib/config"
	"orbitrelay.dev/orbitlib/connection/transporter"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

func initializeConfigFile(path string, contents string) {
	Expect(os.WriteFile(path, []byte(contents), 0600)).To(Succeed())
}

var _ = Describe("Settings", func() {
	var path string

	BeforeEach(func() {
		dir, err := os.MkdirTemp("", "orbit-config")
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		path = filepath.Join(dir, "orbit.yaml")
		for _, envVar := range []string{config.TransportEnvVar, config.WsUrlEnvVar, config.TokenEnvVar, config.RunnerNameEnvVar, config.TcpHostEnvVar, config.TcpTokenEnvVar, config.LogLevelEnvVar, config.LogPathEnvVar} {
			os.Unsetenv(envVar)
		}
	})

	Context("Loading", func() {
		When("there is no settings file", func() {
			It("runs on defaults", func() {
				settings, err := config.Load(path)
				Expect(err).ToNot(HaveOccurred())
				Expect(settings).To(Equal(config.Default()))
			})
		})

		When("the settings file is valid", func() {
			BeforeEach(func() {
				initializeConfigFile(path, "transport: orbit-ws\norbitWsUrl: https://relay.example.dev/ws/1\nrunnerName: laptop\nlogLevel: debug\n")
			})

			It("reads every field", func() {
				settings, err := config.Load(path)
				Expect(err).ToNot(HaveOccurred())
				Expect(settings.OrbitWsUrl).To(Equal("https://relay.example.dev/ws/1"))
				Expect(settings.RunnerName).To(Equal("laptop"))
				Expect(settings.LogLevel).To(Equal("debug"))
			})

			It("lets the environment win", func() {
				os.Setenv(config.WsUrlEnvVar, "wss://override.example.dev")
				DeferCleanup(os.Unsetenv, config.WsUrlEnvVar)

				settings, err := config.Load(path)
				Expect(err).ToNot(HaveOccurred())
				Expect(settings.OrbitWsUrl).To(Equal("wss://override.example.dev"))
				Expect(settings.RunnerName).To(Equal("laptop"))
			})
		})

		When("the settings file is malformed", func() {
			It("reports a validation error", func() {
				initializeConfigFile(path, "transport: [orbit-ws\n")

				_, err := config.Load(path)
				var validationErr *config.ValidationError
				Expect(errors.As(err, &validationErr)).To(BeTrue(), "expected a validation error, got: %v", err)
			})
		})

		When("the settings path cannot be read", func() {
			It("reports a file error", func() {
				_, err := config.Load(filepath.Dir(path))
				var fileErr *config.FileError
				Expect(errors.As(err, &fileErr)).To(BeTrue(), "expected a file error, got: %v", err)
			})
		})
	})

	Context("Selecting a transport", func() {
		It("defaults to the Orbit websocket transport", func() {
			settings := &config.Settings{OrbitWsUrl: "wss://relay.example.dev", OrbitToken: "secret"}

			config, err := settings.TransportConfig()
			Expect(err).ToNot(HaveOccurred())
			Expect(config).To(Equal(transporter.OrbitWsConfig{WsUrl: "wss://relay.example.dev", Token: "secret"}))
		})

		It("builds the tcp variant", func() {
			settings := &config.Settings{Transport: " TCP ", TcpHost: "127.0.0.1:4732"}

			config, err := settings.TransportConfig()
			Expect(err).ToNot(HaveOccurred())
			Expect(config.Kind()).To(Equal(transporter.Tcp))
		})

		It("rejects unknown transports", func() {
			settings := &config.Settings{Transport: "carrier-pigeon"}

			_, err := settings.TransportConfig()
			var validationErr *config.ValidationError
			Expect(errors.As(err, &validationErr)).To(BeTrue())
		})
	})
})
