package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-d local database path
//	-remote-url remote FHIR endpoint base URL
//	-remote-token bearer token for the remote endpoint
//	-remote-fake use the in-memory fake endpoint
//	-status-address status endpoint address in format [host]:[port]
//	-request-timeout remote request timeout (e.g., "30s", "1m")
//	-retry-check-interval queue drain check interval (e.g., "500ms")
//	-purge-interval expired-record purge interval (e.g., "1m")
//	-c/-config json file path with configs
func ParseFlags() *AgentConfig {
	var statusAddress NetAddress
	var databaseDSN string
	var remoteURL string
	var remoteToken string
	var remoteFake bool
	var jsonConfigPath string
	var requestTimeout time.Duration
	var retryCheckInterval time.Duration
	var purgeInterval time.Duration

	flag.StringVar(&databaseDSN, "d", "", "Local database path")
	flag.StringVar(&remoteURL, "remote-url", "", "Remote FHIR endpoint base URL")
	flag.StringVar(&remoteToken, "remote-token", "", "Remote endpoint bearer token")
	flag.BoolVar(&remoteFake, "remote-fake", false, "Use the in-memory fake endpoint")
	flag.Var(&statusAddress, "status-address", "Status endpoint net address host:port")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Remote request timeout (e.g., 30s, 1m)")
	flag.DurationVar(&retryCheckInterval, "retry-check-interval", 0, "Queue drain check interval (e.g., 500ms)")
	flag.DurationVar(&purgeInterval, "purge-interval", 0, "Expired-record purge interval (e.g., 1m)")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &AgentConfig{
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Remote: Remote{
			BaseURL:        remoteURL,
			Token:          remoteToken,
			RequestTimeout: requestTimeout,
			UseFake:        remoteFake,
		},
		Sync: Sync{
			RetryCheckInterval: retryCheckInterval,
			PurgeInterval:      purgeInterval,
		},
		Status: Status{
			HTTPAddress: statusAddress.String(),
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns the empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
