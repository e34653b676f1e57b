// vexcl_devices lists the compute devices (or command queues) selected by filters.
//
// The filter from the environment (OCL_PLATFORM, OCL_VENDOR, OCL_DEVICE, OCL_TYPE, OCL_MAX_DEVICES and
// OCL_POSITION) is always applied first, followed by the filters given as flags.
//
// With --exclusive the selected devices are locked (see VEXCL_LOCK_DIR), and with --hold the locks are kept
// until the program is interrupted, which is handy to keep devices away from other vexcl programs.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmcdougall/vexcl"
	"github.com/dmcdougall/vexcl/compute"
	"github.com/dmcdougall/vexcl/compute/memory"
	_ "github.com/dmcdougall/vexcl/compute/webgpu"
	"github.com/dmcdougall/vexcl/filter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00afff"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
)

// options holds the command line flags.
type options struct {
	backend      string
	memoryConfig string
	queues       bool
	exclusive    bool
	hold         bool

	double     bool
	platform   string
	vendor     string
	name       string
	deviceType string
	count      int
	position   int
}

func main() {
	klog.InitFlags(nil)
	cmd := newRootCmd()
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	if err := cmd.Execute(); err != nil {
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "vexcl_devices",
		Short:        "list the compute devices selected by filters",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.backend, "backend", "",
		fmt.Sprintf("compute backend, one of %v; defaults to $%s or %q", compute.AvailableBackends(), compute.BackendEnv,
			compute.DefaultBackendName))
	flags.StringVar(&opts.memoryConfig, "memory-config", "",
		"YAML file describing simulated devices: it implies --backend=memory")
	flags.BoolVar(&opts.queues, "queues", false, "create a context and a queue on each selected device")
	flags.BoolVar(&opts.exclusive, "exclusive", false,
		fmt.Sprintf("lock the selected devices, skipping the ones locked by other programs (lock files in $%s)",
			filter.LockDirEnv))
	flags.BoolVar(&opts.hold, "hold", false, "with --exclusive, keep the locks until interrupted")
	flags.BoolVar(&opts.double, "double", false, "select only devices supporting double precision")
	flags.StringVar(&opts.platform, "platform", "", "select devices whose platform name contains the value")
	flags.StringVar(&opts.vendor, "vendor", "", "select devices whose vendor contains the value")
	flags.StringVar(&opts.name, "name", "", "select devices whose name contains the value")
	flags.StringVar(&opts.deviceType, "type", "", "select devices of the type: CPU, GPU or ACCELERATOR")
	flags.IntVar(&opts.count, "count", -1, "select at most this number of devices, if >= 0")
	flags.IntVar(&opts.position, "position", -1, "select only the device at this position, if >= 0")
	return cmd
}

// selectBackend returns the backend chosen by the flags.
func selectBackend(opts *options) (compute.Backend, error) {
	if opts.memoryConfig != "" {
		if opts.backend != "" && opts.backend != memory.BackendName {
			return nil, errors.Errorf("--memory-config can only be used with --backend=%s", memory.BackendName)
		}
		cfg, err := memory.LoadConfig(opts.memoryConfig)
		if err != nil {
			return nil, err
		}
		return memory.New(cfg)
	}
	if opts.backend != "" {
		return compute.GetBackend(opts.backend)
	}
	return compute.Default()
}

// buildFilter combines the environment filter with the flags. The stateful filters (--count and --position)
// come last.
func buildFilter(opts *options) (filter.Filter, error) {
	envFilter, err := filter.ParseEnv()
	if err != nil {
		return nil, err
	}
	filters := []filter.Filter{envFilter}
	if opts.platform != "" {
		filters = append(filters, filter.Platform(opts.platform))
	}
	if opts.vendor != "" {
		filters = append(filters, filter.Vendor(opts.vendor))
	}
	if opts.name != "" {
		filters = append(filters, filter.Name(opts.name))
	}
	if opts.deviceType != "" {
		deviceType, err := compute.DeviceTypeString(opts.deviceType)
		if err != nil || deviceType == compute.DeviceTypeOther {
			return nil, errors.Errorf("invalid --type=%q, valid values are CPU, GPU, ACCELERATOR or ALL", opts.deviceType)
		}
		filters = append(filters, filter.Type(deviceType))
	}
	if opts.double {
		filters = append(filters, filter.DoublePrecision)
	}
	if opts.count >= 0 {
		filters = append(filters, filter.Count(opts.count))
	}
	if opts.position >= 0 {
		filters = append(filters, filter.Position(opts.position))
	}
	return filter.AllOf(filters...), nil
}

func run(out io.Writer, opts *options) error {
	if opts.hold && !opts.exclusive {
		return errors.New("--hold requires --exclusive")
	}
	backend, err := selectBackend(opts)
	if err != nil {
		return err
	}
	f, err := buildFilter(opts)
	if err != nil {
		return err
	}
	var registry *filter.LockRegistry
	if opts.exclusive {
		registry = filter.NewLockRegistry(backend, "")
		f = registry.Exclusive(f)
		defer func() {
			if err := registry.Release(); err != nil {
				klog.Errorf("failed to release device locks: %+v", err)
			}
		}()
	}
	klog.V(1).Infof("selecting devices of %q with %s", backend.Name(), filter.Describe(f))

	if opts.queues {
		ctx, err := vexcl.NewContext(f).WithBackend(backend).Done()
		if err != nil {
			return err
		}
		defer func() {
			if err := ctx.Release(); err != nil {
				klog.Errorf("failed to release context: %+v", err)
			}
		}()
		_, _ = fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Queues on %s:", backend.Name())))
		printList(out, ctx.String())
	} else {
		devices, err := vexcl.DeviceListOn(backend, f)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Devices on %s:", backend.Name())))
		printList(out, devices.String())
		for _, d := range devices {
			klog.V(1).Infof("%s: vendor=%q type=%s extensions=%q", d.Name(), d.Vendor(), d.Type(), d.Extensions())
		}
	}

	if registry != nil {
		for _, path := range registry.Held() {
			_, _ = fmt.Fprintln(out, subtleStyle.Render("locked "+path))
		}
		if opts.hold {
			waitForInterrupt(out)
		}
	}
	return nil
}

func printList(out io.Writer, list string) {
	if list == "" {
		_, _ = fmt.Fprintln(out, subtleStyle.Render("(none)"))
		return
	}
	_, _ = fmt.Fprint(out, list)
}

func waitForInterrupt(out io.Writer) {
	_, _ = fmt.Fprintln(out, subtleStyle.Render("holding device locks, press Ctrl+C to release them"))
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	<-signals
}
