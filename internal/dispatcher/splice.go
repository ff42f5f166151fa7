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

package dispatcher

import (
	"io"
	"net"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Splice pumps bytes in both directions between client and upstream until
// either side is done, then closes both. It owns both endpoints for the
// lifetime of the connection (spec.md §3 "Connection-scoped data").
func Splice(client, upstream net.Conn, log logrus.FieldLogger) {
	defer client.Close()
	defer upstream.Close()

	var g errgroup.Group

	g.Go(func() error {
		_, err := io.Copy(upstream, client)
		_ = upstream.Close()
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(client, upstream)
		_ = client.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Debugf("dispatcher: proxy splice ended: %v", err)
	}
}
