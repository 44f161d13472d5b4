package model

import "time"

// NetworkHost is a host discovered by network scans, keyed by IP address.
type NetworkHost struct {
	IPAddress string
	Hostname  string
	OSType    string
	Status    string
	FirstSeen time.Time
	LastSeen  time.Time
	OpenPorts []HostPort
	Services  []HostService
}

type HostPort struct {
	Port     int
	Protocol string
	State    string
}

type HostService struct {
	Port    int
	Service string
	Version string
}
