package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wurstmineberg/systemd-minecraft/internal/backup"
	"github.com/wurstmineberg/systemd-minecraft/internal/config"
	"github.com/wurstmineberg/systemd-minecraft/internal/console"
	"github.com/wurstmineberg/systemd-minecraft/internal/launchermeta"
	"github.com/wurstmineberg/systemd-minecraft/internal/logging"
	"github.com/wurstmineberg/systemd-minecraft/internal/store"
	"github.com/wurstmineberg/systemd-minecraft/internal/supervisor"
	"github.com/wurstmineberg/systemd-minecraft/internal/systemd"
	"github.com/wurstmineberg/systemd-minecraft/internal/updater"
	"github.com/wurstmineberg/systemd-minecraft/internal/world"
)

// defaultWorld is used when a subcommand is invoked without a world argument.
const defaultWorld = "wurstmineberg"

func usage() {
	fmt.Fprintf(os.Stderr, `usage: minecraft <command> [arguments]

Commands:
  run [world]                    supervise a world's server process
  cmd [world] <command>          send a console command and print the response
  update [world] [version]       install a server version (-snapshot for latest snapshot)
  backup [world]                 back up a world's directory
  worlds                         list configured worlds and their state
  history [world]                show recently applied updates
`)
	os.Exit(2)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	if _, err := logging.Init(cfg.Logging); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logging.Close()

	if len(os.Args) < 2 {
		usage()
	}
	args := os.Args[2:]

	switch os.Args[1] {
	case "run":
		err = runRun(cfg, args)
	case "cmd":
		err = runCmd(cfg, args)
	case "update":
		err = runUpdate(cfg, args)
	case "backup":
		err = runBackup(cfg, args)
	case "worlds":
		err = runWorlds(cfg, args)
	case "history":
		err = runHistory(cfg, args)
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

// worldArg resolves an optional leading world argument.
func worldArg(cfg *config.Config, args []string) (*world.World, []string) {
	if len(args) > 0 {
		return world.New(args[0], cfg.Paths.WorldsDir), args[1:]
	}
	return world.New(defaultWorld, cfg.Paths.WorldsDir), nil
}

func runRun(cfg *config.Config, args []string) error {
	if len(args) > 1 {
		usage()
	}
	w, _ := worldArg(cfg, args)

	sup := supervisor.New(w, cfg.Java.Binary, logging.L())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wcfg, err := w.Config()
	if err != nil {
		return err
	}
	if wcfg.Backups.Enabled {
		manager := backup.NewManager(cfg.Paths.BackupDir, console.ForWorld(w), logging.L())
		backup.NewScheduleRunner(w, manager, wcfg.Backups.Schedule, logging.L()).Start(ctx)
	}

	return sup.Run()
}

func runCmd(cfg *config.Config, args []string) error {
	var w *world.World
	var command string
	switch len(args) {
	case 1:
		w = world.New(defaultWorld, cfg.Paths.WorldsDir)
		command = args[0]
	case 2:
		w = world.New(args[0], cfg.Paths.WorldsDir)
		command = args[1]
	default:
		usage()
	}

	response, err := console.ForWorld(w).Command(command)
	if err != nil {
		return err
	}
	fmt.Println(response)
	return nil
}

func runUpdate(cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("update", flag.ExitOnError)
	snapshot := flags.Bool("snapshot", false, "install the latest snapshot instead of the latest release")
	flags.Parse(args)

	spec := launchermeta.LatestRelease
	if *snapshot {
		spec = launchermeta.LatestSnapshot
	}
	w, rest := worldArg(cfg, flags.Args())
	switch len(rest) {
	case 0:
	case 1:
		spec = launchermeta.Exact(rest[0])
	default:
		usage()
	}

	manager, err := systemd.New()
	if err != nil {
		return err
	}
	defer manager.Close()

	registry := openStore(cfg)
	defer registry.Close()

	u := updater.New(launchermeta.NewClient(cfg.Launcher.ManifestURL), manager, registry, cfg.JarDir(), logging.L())
	_, err = u.Update(context.Background(), w, spec)
	return err
}

func runBackup(cfg *config.Config, args []string) error {
	if len(args) > 1 {
		usage()
	}
	w, _ := worldArg(cfg, args)

	manager := backup.NewManager(cfg.Paths.BackupDir, console.ForWorld(w), logging.L())
	path, err := manager.Backup(context.Background(), w, true)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runWorlds(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		usage()
	}

	manager, err := systemd.New()
	if err != nil {
		return err
	}
	defer manager.Close()

	worlds, err := world.All(cfg.Paths.WorldsDir)
	if err != nil {
		return err
	}
	for _, w := range worlds {
		state := "stopped"
		active, err := manager.IsActive(context.Background(), systemd.UnitName(w.Name()))
		if err != nil {
			state = "unknown"
		} else if active {
			state = "running"
		}
		fmt.Printf("%s\t%s\n", w.Name(), state)
	}
	return nil
}

func runHistory(cfg *config.Config, args []string) error {
	if len(args) > 1 {
		usage()
	}
	w, _ := worldArg(cfg, args)

	registry := openStore(cfg)
	defer registry.Close()
	if registry == nil {
		return fmt.Errorf("no update registry at %s", cfg.Database.Path)
	}

	updates, err := registry.Updates(w.Name(), 20)
	if err != nil {
		return err
	}
	for _, u := range updates {
		from := u.FromVersion
		if from == "" {
			from = "(none)"
		}
		fmt.Printf("%s\t%s -> %s\n", u.AppliedAt.Format("2006-01-02 15:04"), from, u.ToVersion)
	}
	return nil
}

// openStore opens the artifact registry. The registry is optional: a failure
// is logged and commands proceed without recording.
func openStore(cfg *config.Config) *store.Store {
	registry, err := store.Open(cfg.Database.Path)
	if err != nil {
		logging.L().Warn("update registry unavailable", "path", cfg.Database.Path, "error", err)
		return nil
	}
	return registry
}
