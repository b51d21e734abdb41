// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// cookies.go - session cookie persistence across CLI invocations.
//
// The backend authenticates with an HTTP session cookie. A browser keeps it
// alive for the whole tab; a CLI process exits after every command, so the
// cookie is written to an owner-only file and restored into the jar on the
// next invocation.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
)

// storedCookie is the serialized form of one jar cookie. The jar only hands
// back name and value for a URL; expiry stays server-side.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SaveCookies writes the cookies applicable to the backend base URL to path
// with owner-only permissions.
func (c *Client) SaveCookies(path string) error {
	u, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	stored := make([]storedCookie, 0, 1)
	for _, ck := range c.httpClient.Jar.Cookies(u) {
		stored = append(stored, storedCookie{Name: ck.Name, Value: ck.Value})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// LoadCookies restores cookies previously written by SaveCookies. A missing
// file is not an error: it just means there is no session yet.
func (c *Client) LoadCookies(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("corrupt session file %s: %w", path, err)
	}
	if len(stored) == 0 {
		return nil
	}

	u, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}
	c.httpClient.Jar.SetCookies(u, cookies)
	return nil
}
