// Package utils wraps serial port enumeration for the RTU side of the
// connection manager: listing available ports for the command surface's
// port picker, and validating a requested device name before dialing it.
package utils

import (
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialPortInfo describes one enumerated serial port.
type SerialPortInfo struct {
	Name        string
	Description string
	VID         string
	PID         string
}

// AvailableSerialPorts lists every serial port the OS reports, with
// vendor/product identification where the platform exposes it.
func AvailableSerialPorts() ([]SerialPortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	result := make([]SerialPortInfo, 0, len(ports))
	for _, port := range ports {
		result = append(result, SerialPortInfo{
			Name:        port.Name,
			Description: port.Product,
			VID:         port.VID,
			PID:         port.PID,
		})
	}
	return result, nil
}

// SerialPortNames lists the bare device names of every available serial
// port, upper-cased to match the convention the RTU connection key hashes
// against.
func SerialPortNames() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = strings.ToUpper(p)
	}
	return names, nil
}

// ValidateSerialPort reports whether portName (case-insensitively) names a
// serial port the OS currently sees.
func ValidateSerialPort(portName string) bool {
	ports, err := serial.GetPortsList()
	if err != nil {
		return false
	}

	target := strings.ToUpper(portName)
	for _, port := range ports {
		if strings.ToUpper(port) == target {
			return true
		}
	}
	return false
}
