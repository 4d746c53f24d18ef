package commands

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blobmesh/blobmesh/src/blobmesh"
)

//NewShellCmd returns the command that drives the cluster interactively
func NewShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Drive the cluster interactively",
		Long: `shell reads commands from stdin and runs them against one in-process
cluster, so node processes started here keep their live handles until quit.`,
		PreRunE: loadConfig,
		RunE:    shell,
	}

	return cmd
}

func shell(cmd *cobra.Command, args []string) error {
	cluster := blobmesh.NewCluster(&_config.Cluster)

	running := true

	fmt.Println("Type 'h' to get help")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Split(bufio.ScanLines)

	for running {
		fmt.Print("$> ")

		if !scanner.Scan() {
			return nil
		}

		fields := strings.Split(scanner.Text(), " ")

		switch fields[0] {
		case "h":
			fallthrough

		case "help":
			shellHelp()

		case "s":
			fallthrough

		case "start":
			shellStart(cluster, fields)

		case "stop":
			if id := shellNodeArg(fields); id > 0 {
				shellReport(cluster.StopOne(id))
			} else {
				reportFailures(cluster.StopAll())
			}

		case "k":
			fallthrough

		case "kill":
			if id := shellNodeArg(fields); id > 0 {
				shellReport(cluster.KillOne(id))
			} else {
				reportFailures(cluster.KillAll())
			}

		case "c":
			fallthrough

		case "cli":
			if len(fields) < 2 {
				fmt.Println("Usage: cli <method> [args...]")
				continue
			}

			cli(cmd, fields[1:])

		case "c1":
			fallthrough

		case "cli1":
			if len(fields) < 3 {
				fmt.Println("Usage: cli1 <node> <method> [args...]")
				continue
			}

			shellReport(cli1(cmd, fields[1:]))

		case "chk":
			fallthrough

		case "check":
			if len(fields) < 2 {
				fmt.Println("Usage: check <blob> [source]")
				continue
			}

			shellCheck(cluster, fields)

		case "l":
			fallthrough

		case "log":
			id := shellNodeArg(fields)
			if id == 0 {
				id = 1
			}

			readLog(&_config.Cluster, id)

		case "list":
			for _, proc := range cluster.Supervisor.Processes() {
				fmt.Printf("node%d: %s (pid %d)\n", proc.ID, proc.Status(), proc.PID)
			}

		case "q":
			fallthrough

		case "quit":
			running = false

		case "":

		default:
			fmt.Println("Unknown command", fields[0])
		}
	}

	return nil
}

func shellStart(cluster *blobmesh.Cluster, fields []string) {
	if id := shellNodeArg(fields); id > 0 {
		shellReport(cluster.StartOne(id))
		return
	}

	if err := cluster.Provision(); err != nil {
		fmt.Println("Error:", err)
		return
	}

	reportFailures(cluster.StartAll())
}

func shellCheck(cluster *blobmesh.Cluster, fields []string) {
	source := _config.Source
	if len(fields) >= 3 {
		source, _ = strconv.Atoi(fields[2])
	}

	res, err := cluster.Check(fields[1], source)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println(res.String())
}

// shellNodeArg reads an optional node id from the second field. 0 means the
// whole cluster.
func shellNodeArg(fields []string) int {
	if len(fields) < 2 {
		return 0
	}

	id, _ := strconv.Atoi(fields[1])

	return id
}

func shellReport(err error) {
	if err != nil {
		fmt.Println("Error:", err)
	}
}

func shellHelp() {
	fmt.Println("Commands:")
	fmt.Println("  s | start [node]            - Provision and start the cluster, or start one node")
	fmt.Println("      stop [node]             - Deliver TERM to the cluster, or to one node")
	fmt.Println("  k | kill [node]             - Deliver KILL to the cluster, or to one node")
	fmt.Println("  c | cli <method> [args]     - Broadcast a control-plane command")
	fmt.Println("  c1 | cli1 <node> <method>   - Send a control-plane command to one node")
	fmt.Println("  chk | check <blob> [source] - Run a consistency check on a blob")
	fmt.Println("  l | log [node=1]            - Show logs for a node")
	fmt.Println("      list                    - List node processes")
	fmt.Println("  h | help                    - This help")
	fmt.Println("  q | quit                    - Quit")
}
