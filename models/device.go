// File: deployhub/models/device.go
package models

import "time"

// DeviceInfo is the metadata registered alongside a push token.
type DeviceInfo struct {
	Token      string    `bson:"token" json:"token"`
	Platform   string    `bson:"platform,omitempty" json:"platform,omitempty"`
	Browser    string    `bson:"browser,omitempty" json:"browser,omitempty"`
	Version    string    `bson:"version,omitempty" json:"version,omitempty"`
	DeviceName string    `bson:"deviceName,omitempty" json:"deviceName,omitempty"`
	AddedAt    time.Time `bson:"addedAt" json:"addedAt"`
	LastActive time.Time `bson:"lastActive" json:"lastActive"`
}

// UserToken is the set of push tokens registered by one user.
type UserToken struct {
	UserID    string           `bson:"userId" json:"userId"`
	Type      NotificationType `bson:"type" json:"type"`
	Tokens    []string         `bson:"tokens" json:"tokens"`
	Devices   []DeviceInfo     `bson:"devices,omitempty" json:"devices,omitempty"`
	CreatedAt time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// RegisterTokenRequest is the payload of a device registration.
type RegisterTokenRequest struct {
	Token      string `json:"token" binding:"required"`
	Platform   string `json:"platform,omitempty"`
	Browser    string `json:"browser,omitempty"`
	Version    string `json:"version,omitempty"`
	DeviceName string `json:"deviceName,omitempty"`
}

// HasToken reports whether token is already registered.
func (u *UserToken) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// AddToken registers token once. A repeated token only refreshes its device metadata.
func (u *UserToken) AddToken(req RegisterTokenRequest, now time.Time) {
	if !u.HasToken(req.Token) {
		u.Tokens = append(u.Tokens, req.Token)
	}

	for i := range u.Devices {
		if u.Devices[i].Token != req.Token {
			continue
		}
		d := &u.Devices[i]
		if req.Platform != "" {
			d.Platform = req.Platform
		}
		if req.Browser != "" {
			d.Browser = req.Browser
		}
		if req.Version != "" {
			d.Version = req.Version
		}
		if req.DeviceName != "" {
			d.DeviceName = req.DeviceName
		}
		d.LastActive = now
		return
	}

	u.Devices = append(u.Devices, DeviceInfo{
		Token:      req.Token,
		Platform:   req.Platform,
		Browser:    req.Browser,
		Version:    req.Version,
		DeviceName: req.DeviceName,
		AddedAt:    now,
		LastActive: now,
	})
}

// RemoveTokens drops the given tokens and their metadata. It returns how many tokens were removed.
func (u *UserToken) RemoveTokens(tokens ...string) int {
	drop := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		drop[t] = struct{}{}
	}

	kept := u.Tokens[:0]
	removed := 0
	for _, t := range u.Tokens {
		if _, ok := drop[t]; ok {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	u.Tokens = kept

	devices := u.Devices[:0]
	for _, d := range u.Devices {
		if _, ok := drop[d.Token]; !ok {
			devices = append(devices, d)
		}
	}
	u.Devices = devices
	return removed
}
