// Scalerctl is a command-line client for the scalerd JSON-RPC server.
//
// Usage:
//
//	scalerctl [-addr host:port] status
//	scalerctl [-addr host:port] start [-preset seconds]
//	scalerctl [-addr host:port] stop
//	scalerctl [-addr host:port] read
//	scalerctl [-addr host:port] match
//	scalerctl [-addr host:port] select name [name ...]
package main

import (
	"flag"
	"fmt"
	"log"
	"net/rpc/jsonrpc"
	"os"

	"github.com/synapps-go/scaler"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: scalerctl [-addr host:port] status|start|stop|read|match|select ...\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	addr := flag.String("addr", fmt.Sprintf("localhost:%d", scaler.Ports.RPC), "scalerd JSON-RPC address")
	preset := flag.Float64("preset", 0, "preset count time in seconds (start only)")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	client, err := jsonrpc.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("could not reach scalerd at %s: %v", *addr, err)
	}
	defer client.Close()

	dummy := ""
	switch cmd := flag.Arg(0); cmd {
	case "status":
		var status scaler.ScalerStatus
		if err := client.Call("ScalerControl.Status", &dummy, &status); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("prefix:    %s\n", status.Prefix)
		fmt.Printf("counting:  %t\n", status.Counting)
		if status.RunID != "" {
			fmt.Printf("run:       %s\n", status.RunID)
		}
		fmt.Printf("read set:  %q\n", status.ReadAttrs)
		if fields, ok := status.Hints["fields"]; ok {
			fmt.Printf("hints:     %q\n", fields)
		}
		fmt.Printf("server:    scalerd %s\n", status.Version)

	case "start":
		args := scaler.CountArgs{PresetSeconds: *preset}
		var reply scaler.StartReply
		if err := client.Call("ScalerControl.StartCount", &args, &reply); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("counting, run %s\n", reply.RunID)

	case "stop":
		var ok bool
		if err := client.Call("ScalerControl.StopCount", &dummy, &ok); err != nil {
			log.Fatal(err)
		}
		fmt.Println("stopped")

	case "read":
		var r scaler.Reading
		if err := client.Call("ScalerControl.ReadAll", &dummy, &r); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("elapsed: %.3f s\n", r.Elapsed)
		for _, ch := range r.Channels {
			label := ch.Name
			if label == "" {
				label = ch.Attr
			}
			fmt.Printf("%-8s %-16s %12.0f\n", ch.Attr, label, ch.Counts)
		}

	case "match":
		var ok bool
		if err := client.Call("ScalerControl.MatchNames", &dummy, &ok); err != nil {
			log.Fatal(err)
		}
		fmt.Println("names refreshed")

	case "select":
		if flag.NArg() < 2 {
			usage()
		}
		args := scaler.SelectArgs{Names: flag.Args()[1:]}
		var reply scaler.SelectReply
		if err := client.Call("ScalerControl.SelectChannels", &args, &reply); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("read set: %q\n", reply.ReadAttrs)
		fmt.Printf("hints:    %q\n", reply.Hints)

	default:
		log.Fatalf("unknown command %q", cmd)
	}
}
