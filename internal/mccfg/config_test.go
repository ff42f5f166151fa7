/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package mccfg_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/mcservernap/internal/mccfg"
)

// chdirToTempDir points the process at a scratch directory for the duration
// of a test, since Load and loadIcon resolve ConfigFile/IconFile relative to
// the current working directory, then restores the original directory.
func chdirToTempDir() string {
	dir := GinkgoT().TempDir()

	prev, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())

	Expect(os.Chdir(dir)).To(Succeed())
	DeferCleanup(func() {
		Expect(os.Chdir(prev)).To(Succeed())
	})

	return dir
}

var _ = Describe("Load", func() {
	var log *logrus.Logger

	BeforeEach(func() {
		log, _ = test.NewNullLogger()
	})

	It("falls back to defaults and writes a default config file when none exists", func() {
		dir := chdirToTempDir()

		cfg, err := mccfg.Load(log)
		Expect(err).NotTo(HaveOccurred())

		defaults := mccfg.Defaults()
		Expect(cfg.RconPollInterval).To(Equal(defaults.RconPollInterval))
		Expect(cfg.RconIdleTimeout).To(Equal(defaults.RconIdleTimeout))
		Expect(cfg.MotdText).To(Equal(defaults.MotdText))
		Expect(cfg.MotdColor).To(Equal(defaults.MotdColor))
		Expect(cfg.ServerIconBase64).To(BeEmpty())

		_, statErr := os.Stat(filepath.Join(dir, mccfg.ConfigFile))
		Expect(statErr).NotTo(HaveOccurred())
	})

	It("reads values from an existing config file", func() {
		dir := chdirToTempDir()
		Expect(os.MkdirAll(filepath.Join(dir, mccfg.ConfigDir), 0o755)).To(Succeed())

		const body = `
rcon_poll_interval = 30
rcon_idle_timeout = 120
motd_text = "Custom MOTD"
motd_color = "gold"
motd_bold = false
connection_msg_text = "Custom refusal"
connection_msg_color = "red"
connection_msg_bold = false
`
		Expect(os.WriteFile(filepath.Join(dir, mccfg.ConfigFile), []byte(body), 0o644)).To(Succeed())

		cfg, err := mccfg.Load(log)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.RconPollInterval).To(Equal(uint(30)))
		Expect(cfg.RconIdleTimeout).To(Equal(uint(120)))
		Expect(cfg.MotdText).To(Equal("Custom MOTD"))
		Expect(cfg.MotdColor).To(Equal("gold"))
		Expect(cfg.ConnectionMsgColor).To(Equal("red"))
	})

	It("rejects a chat color outside the Minecraft enum", func() {
		dir := chdirToTempDir()
		Expect(os.MkdirAll(filepath.Join(dir, mccfg.ConfigDir), 0o755)).To(Succeed())

		const body = `
rcon_poll_interval = 30
rcon_idle_timeout = 120
motd_text = "Custom MOTD"
motd_color = "not-a-real-color"
motd_bold = false
connection_msg_text = "Custom refusal"
connection_msg_color = "red"
connection_msg_bold = false
`
		Expect(os.WriteFile(filepath.Join(dir, mccfg.ConfigFile), []byte(body), 0o644)).To(Succeed())

		_, err := mccfg.Load(log)
		Expect(err).To(HaveOccurred())
	})

	It("resizes a supplied server icon and embeds it as a base64 favicon", func() {
		dir := chdirToTempDir()
		Expect(os.MkdirAll(filepath.Join(dir, mccfg.ConfigDir), 0o755)).To(Succeed())

		src := image.NewRGBA(image.Rect(0, 0, 128, 128))
		for y := 0; y < 128; y++ {
			for x := 0; x < 128; x++ {
				src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 255, A: 255})
			}
		}
		var buf bytes.Buffer
		Expect(png.Encode(&buf, src)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, mccfg.IconFile), buf.Bytes(), 0o644)).To(Succeed())

		cfg, err := mccfg.Load(log)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.ServerIconBase64).NotTo(BeEmpty())

		decoded, err := base64.StdEncoding.DecodeString(cfg.ServerIconBase64)
		Expect(err).NotTo(HaveOccurred())

		resized, err := png.Decode(bytes.NewReader(decoded))
		Expect(err).NotTo(HaveOccurred())

		bounds := resized.Bounds()
		Expect(bounds.Dx()).To(Equal(mccfg.IconSize))
		Expect(bounds.Dy()).To(Equal(mccfg.IconSize))
	})
})
