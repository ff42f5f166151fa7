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

package mcproto

// ProtocolVersion is the protocol number advertised in the status response,
// matching Minecraft Java 1.20.5.
const ProtocolVersion = 766

// ServerName is the version.name field shown in the client's server list.
const ServerName = "MCServerNap (1.20.5)"

// VersionInfo is the "version" object of the status response JSON.
type VersionInfo struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

// PlayersInfo is the "players" object of the status response JSON. Sample is
// always empty: mcservernap never reports real player identities while the
// game server is stopped.
type PlayersInfo struct {
	Max    int           `json:"max"`
	Online int           `json:"online"`
	Sample []interface{} `json:"sample"`
}

// Chat is a minimal Minecraft chat component: text plus color/bold styling.
// Both the status description and the disconnect message use this shape.
type Chat struct {
	Text  string `json:"text"`
	Color string `json:"color"`
	Bold  bool   `json:"bold"`
}

// StatusResponse is the JSON body of the server-list status packet.
type StatusResponse struct {
	Version     VersionInfo `json:"version"`
	Players     PlayersInfo `json:"players"`
	Description Chat        `json:"description"`
	Favicon     string      `json:"favicon,omitempty"`
}

// NewStatusResponse builds the status JSON payload for the given MOTD and
// optional base64-encoded PNG icon (64x64, without the data-URI prefix).
func NewStatusResponse(motd Chat, iconBase64 string) StatusResponse {
	r := StatusResponse{
		Version: VersionInfo{
			Name:     ServerName,
			Protocol: ProtocolVersion,
		},
		Players: PlayersInfo{
			Max:    0,
			Online: 0,
			Sample: []interface{}{},
		},
		Description: motd,
	}

	if iconBase64 != "" {
		r.Favicon = "data:image/png;base64," + iconBase64
	}

	return r
}
