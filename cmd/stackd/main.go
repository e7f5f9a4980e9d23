// Command stackd runs the dual-stack core against a tap interface or a
// physical NIC, exposing its counters on a Prometheus endpoint.
package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/nilgiri-labs/dualstack"
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/device"
	"github.com/nilgiri-labs/dualstack/stats"
)

func main() {
	os.Exit(run())
}

func run() int {
	ifaceName := flag.String("iface", "tap0", "TAP_INTERFACE_NAME: name of the tap interface to open")
	raw := flag.Bool("raw", false, "bind to -iface as a physical NIC via AF_PACKET instead of opening a tap")
	macStr := flag.String("mac", "", "MAC_ADDRESS: hardware address owned by the stack")
	mtu := flag.Int("mtu", 1500, "MTU")
	ip4Hosts := flag.String("ip4-hosts", "", "IP4_HOST_LIST: comma-separated addr/bits[;gateway] entries, e.g. 192.0.2.10/24;192.0.2.1")
	ip6Hosts := flag.String("ip6-hosts", "", "IP6_HOST_LIST: comma-separated addr/bits[;gateway] entries")
	metricsAddr := flag.String("metrics-addr", ":9110", "address to serve Prometheus metrics on")
	logLevel := flag.String("log-level", "info", "logrus level: debug, info, warn, error")
	flag.Parse()

	log := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stackd: invalid -log-level %q: %v\n", *logLevel, err)
		return 1
	}
	log.SetLevel(level)

	mac, err := parseMAC(*macStr)
	if err != nil {
		log.WithError(err).Error("invalid -mac")
		return 1
	}

	ip4, err := parseIP4Hosts(*ip4Hosts)
	if err != nil {
		log.WithError(err).Error("invalid -ip4-hosts")
		return 1
	}
	ip6, err := parseIP6Hosts(*ip6Hosts)
	if err != nil {
		log.WithError(err).Error("invalid -ip6-hosts")
		return 1
	}

	cfg := dualstack.Config{
		IP4Support: len(ip4) > 0,
		IP6Support: len(ip6) > 0,
		MAC:        mac,
		IP4Hosts:   ip4,
		IP6Hosts:   ip6,
		MTU:        *mtu,
	}

	dev, err := openDevice(*ifaceName, *raw, *mtu)
	if err != nil {
		log.WithError(err).Error("failed to open device")
		return 1
	}

	stack, err := dualstack.NewStack(cfg, dev, log)
	if err != nil {
		log.WithError(err).Error("failed to build stack")
		dev.Close()
		return 1
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(stats.NewCollector(stack.Stats()))

	metricsSrv := &http.Server{
		Addr:              *metricsAddr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", *metricsAddr).Info("metrics server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Warn("metrics server stopped")
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- stack.Run() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig).Info("shutting down")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("stack exited")
		}
	}

	metricsSrv.Close()
	if err := stack.Close(); err != nil {
		log.WithError(err).Warn("error closing stack")
	}
	<-errCh
	return 0
}

func openDevice(name string, raw bool, mtu int) (device.Device, error) {
	if raw {
		return device.NewRawSocket(name)
	}
	return device.NewTap(name, mtu)
}

func parseMAC(s string) (addr.MAC, error) {
	if s == "" {
		return addr.MAC{}, fmt.Errorf("-mac is required")
	}
	hw, err := net.ParseMAC(s)
	if err != nil {
		return addr.MAC{}, err
	}
	return addr.MACFromBytes(hw)
}

// parseIP4Hosts parses a comma-separated IP4_HOST_LIST entry list of the
// form addr/bits[;gateway], e.g. "192.0.2.10/24;192.0.2.1,10.0.0.5/8".
func parseIP4Hosts(s string) ([]dualstack.HostAddr4, error) {
	if s == "" {
		return nil, nil
	}
	var hosts []dualstack.HostAddr4
	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(entry, ";")
		cidr := parts[0]
		addrPart, bitsPart, ok := strings.Cut(cidr, "/")
		if !ok {
			return nil, fmt.Errorf("entry %q: expected addr/bits", entry)
		}
		ip, err := addr.ParseIPv4(addrPart)
		if err != nil {
			return nil, err
		}
		bits, err := strconv.Atoi(bitsPart)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, err)
		}
		h := dualstack.HostAddr4{Address: ip, Prefix: addr.Prefix4{Base: ip, Bits: bits}}
		if len(parts) > 1 && parts[1] != "" {
			gw, err := addr.ParseIPv4(parts[1])
			if err != nil {
				return nil, err
			}
			h.Gateway = gw
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// parseIP6Hosts is parseIP4Hosts's IPv6 analogue.
func parseIP6Hosts(s string) ([]dualstack.HostAddr6, error) {
	if s == "" {
		return nil, nil
	}
	var hosts []dualstack.HostAddr6
	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(entry, ";")
		cidr := parts[0]
		addrPart, bitsPart, ok := strings.Cut(cidr, "/")
		if !ok {
			return nil, fmt.Errorf("entry %q: expected addr/bits", entry)
		}
		ip, err := addr.ParseIPv6(addrPart)
		if err != nil {
			return nil, err
		}
		bits, err := strconv.Atoi(bitsPart)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, err)
		}
		h := dualstack.HostAddr6{Address: ip, Prefix: addr.Prefix6{Base: ip, Bits: bits}}
		if len(parts) > 1 && parts[1] != "" {
			gw, err := addr.ParseIPv6(parts[1])
			if err != nil {
				return nil, err
			}
			h.Gateway = gw
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}
