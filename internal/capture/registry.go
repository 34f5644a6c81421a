package capture

import "sync"

// DeviceSource enumerates the capture devices of the host.
type DeviceSource interface {
	Devices(kind MediaKind) []Device
}

// Registry holds a snapshot of the available capture devices.
type Registry struct {
	source  DeviceSource
	mu      sync.RWMutex
	devices map[MediaKind][]Device
}

// NewRegistry enumerates the devices of src once.
func NewRegistry(src DeviceSource) *Registry {
	r := &Registry{source: src}
	r.Refresh()
	return r
}

// Refresh re-enumerates devices from the source.
func (r *Registry) Refresh() {
	devices := make(map[MediaKind][]Device, 2)
	for _, kind := range []MediaKind{MediaVideo, MediaAudio} {
		for _, d := range r.source.Devices(kind) {
			devices[kind] = append(devices[kind], d.Clone())
		}
	}

	r.mu.Lock()
	r.devices = devices
	r.mu.Unlock()
}

// Devices returns a copy of the devices of the given kind.
func (r *Registry) Devices(kind MediaKind) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.devices[kind]
	out := make([]Device, len(list))
	for i, d := range list {
		out[i] = d.Clone()
	}
	return out
}

// Count returns the number of devices of the given kind.
func (r *Registry) Count(kind MediaKind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices[kind])
}

// DeviceAt returns the first video device at position.
func (r *Registry) DeviceAt(position Position) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices[MediaVideo] {
		if d.Position == position {
			return d.Clone(), true
		}
	}
	return Device{}, false
}

// OtherDevice returns a video device at the opposite position of than.
// It returns false when fewer than two video devices exist.
func (r *Registry) OtherDevice(than Device) (Device, bool) {
	if r.Count(MediaVideo) < 2 {
		return Device{}, false
	}

	want := PositionBack
	if than.Position == PositionBack {
		want = PositionFront
	}

	d, ok := r.DeviceAt(want)
	if !ok || d.ID == than.ID {
		return Device{}, false
	}
	return d, true
}

// Default returns the device a new session attaches for kind: the first
// back-facing video device, otherwise the first device of that kind.
func (r *Registry) Default(kind MediaKind) (Device, bool) {
	if kind == MediaVideo {
		if d, ok := r.DeviceAt(PositionBack); ok {
			return d, true
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if list := r.devices[kind]; len(list) > 0 {
		return list[0].Clone(), true
	}
	return Device{}, false
}

// Lookup returns the device with the given id.
func (r *Registry) Lookup(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, list := range r.devices {
		for _, d := range list {
			if d.ID == id {
				return d.Clone(), true
			}
		}
	}
	return Device{}, false
}
