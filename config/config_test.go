package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rvemu/config"
)

var _ = Describe("Config", func() {
	Describe("Default", func() {
		It("should return a valid configuration", func() {
			c := config.Default()
			Expect(c.Validate()).To(Succeed())
			Expect(c.WindowSize).To(Equal(uint64(4 << 30)))
			Expect(c.StackSize).To(Equal(uint64(32 << 20)))
			Expect(c.MaxInstructions).To(BeZero())
			Expect(c.DecodeCacheSets).To(Equal(1024))
			Expect(c.DecodeCacheWays).To(Equal(4))
			Expect(c.Level()).To(Equal(logrus.InfoLevel))
		})
	})

	Describe("Load and Save", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should round-trip through a file", func() {
			c := config.Default()
			c.MaxInstructions = 1000
			c.Trace = true
			path := filepath.Join(dir, "config.json")

			Expect(c.Save(path)).To(Succeed())
			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(c))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(dir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"stack_size": 65536}`), 0644)).To(Succeed())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.StackSize).To(Equal(uint64(65536)))
			Expect(loaded.WindowSize).To(Equal(config.Default().WindowSize))
		})

		It("should fail on a missing file", func() {
			_, err := config.Load(filepath.Join(dir, "missing.json"))
			Expect(err).To(MatchError(ContainSubstring("failed to read config file")))
		})

		It("should fail on malformed JSON", func() {
			path := filepath.Join(dir, "bad.json")
			Expect(os.WriteFile(path, []byte(`{`), 0644)).To(Succeed())

			_, err := config.Load(path)
			Expect(err).To(MatchError(ContainSubstring("failed to parse config")))
		})
	})

	Describe("ApplyEnv", func() {
		It("should override fields from the environment", func() {
			GinkgoT().Setenv(config.EnvWindowSize, "0x10000000")
			GinkgoT().Setenv(config.EnvMaxInstructions, "500")
			GinkgoT().Setenv(config.EnvDecodeCacheSets, "0")
			GinkgoT().Setenv(config.EnvTrace, "true")

			c := config.Default()
			Expect(c.ApplyEnv()).To(Succeed())
			Expect(c.WindowSize).To(Equal(uint64(0x10000000)))
			Expect(c.MaxInstructions).To(Equal(uint64(500)))
			Expect(c.DecodeCacheSets).To(BeZero())
			Expect(c.DecodeCacheWays).To(Equal(4))
			Expect(c.Trace).To(BeTrue())
			Expect(c.Level()).To(Equal(logrus.TraceLevel))
		})

		It("should leave fields alone without variables", func() {
			c := config.Default()
			Expect(c.ApplyEnv()).To(Succeed())
			Expect(c).To(Equal(config.Default()))
		})

		It("should reject malformed sizes", func() {
			GinkgoT().Setenv(config.EnvStackSize, "big")

			c := config.Default()
			Expect(c.ApplyEnv()).To(MatchError(ContainSubstring(config.EnvStackSize)))
		})

		It("should see variables changed after an earlier read", func() {
			GinkgoT().Setenv(config.EnvMaxInstructions, "10")
			c := config.Default()
			Expect(c.ApplyEnv()).To(Succeed())
			Expect(c.MaxInstructions).To(Equal(uint64(10)))

			GinkgoT().Setenv(config.EnvMaxInstructions, "20")
			c = config.Default()
			Expect(c.ApplyEnv()).To(Succeed())
			Expect(c.MaxInstructions).To(Equal(uint64(20)))
		})

		DescribeTable("malformed decode cache geometry",
			func(name string) {
				GinkgoT().Setenv(name, "many")

				c := config.Default()
				Expect(c.ApplyEnv()).To(MatchError(ContainSubstring(name)))
			},
			Entry("sets", config.EnvDecodeCacheSets),
			Entry("ways", config.EnvDecodeCacheWays),
		)
	})

	Describe("Validate", func() {
		DescribeTable("invalid configurations",
			func(mutate func(*config.Config), message string) {
				c := config.Default()
				mutate(c)
				Expect(c.Validate()).To(MatchError(ContainSubstring(message)))
			},
			Entry("zero window", func(c *config.Config) { c.WindowSize = 0 }, "window_size"),
			Entry("unaligned window", func(c *config.Config) { c.WindowSize = 12345 }, "window_size"),
			Entry("zero stack", func(c *config.Config) { c.StackSize = 0 }, "stack_size must be > 0"),
			Entry("stack larger than window", func(c *config.Config) { c.StackSize = c.WindowSize }, "stack_size must be <"),
			Entry("negative sets", func(c *config.Config) { c.DecodeCacheSets = -1 }, "negative"),
			Entry("enabled cache without ways", func(c *config.Config) { c.DecodeCacheWays = 0 }, "decode_cache_ways"),
			Entry("unknown log level", func(c *config.Config) { c.LogLevel = "loud" }, "log_level"),
		)

		It("should accept a disabled decode cache", func() {
			c := config.Default()
			c.DecodeCacheSets = 0
			c.DecodeCacheWays = 0
			Expect(c.Validate()).To(Succeed())
		})
	})

	It("should clone independently", func() {
		c := config.Default()
		clone := c.Clone()
		clone.StackSize = 1

		Expect(clone).NotTo(BeIdenticalTo(c))
		Expect(c.StackSize).To(Equal(uint64(32 << 20)))
	})
})
