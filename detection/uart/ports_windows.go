//go:build windows

package uart

import (
	"context"
	"sort"

	"golang.org/x/sys/windows/registry"
)

// platformPorts reads the COM ports the serial drivers published under
// HARDWARE\DEVICEMAP\SERIALCOMM
func platformPorts(_ context.Context) ([]serialPort, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, `HARDWARE\DEVICEMAP\SERIALCOMM`, registry.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	defer func() { _ = key.Close() }()

	names, err := key.ReadValueNames(-1)
	if err != nil {
		return nil, err
	}

	ports := make([]serialPort, 0, len(names))
	for _, value := range names {
		com, _, err := key.GetStringValue(value)
		if err != nil {
			continue
		}
		// value names such as \Device\Silabser0 hint at the driver
		ports = append(ports, serialPort{Path: com, Name: com, Product: value})
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Path < ports[j].Path })
	return ports, nil
}
