//go:build !darwin && !windows

package uart

import (
	"context"
	"path/filepath"
	"strings"
)

// platformPorts lists USB serial devices from /dev. Links under
// /dev/serial/by-id carry the USB descriptor, which for rigs with built-in
// USB includes the model name.
func platformPorts(_ context.Context) ([]serialPort, error) {
	var ports []serialPort
	seen := make(map[string]bool)

	links, _ := filepath.Glob("/dev/serial/by-id/*")
	for _, link := range links {
		target, err := filepath.EvalSymlinks(link)
		if err != nil || seen[target] {
			continue
		}
		seen[target] = true
		ports = append(ports, serialPort{
			Path:    target,
			Name:    filepath.Base(target),
			Product: strings.ReplaceAll(filepath.Base(link), "_", " "),
		})
	}

	for _, pattern := range []string{"/dev/ttyUSB*", "/dev/ttyACM*"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true
			ports = append(ports, serialPort{Path: path, Name: filepath.Base(path)})
		}
	}
	return ports, nil
}
