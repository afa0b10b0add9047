// dhcpradius-dictgen seeds and inspects the bbolt-backed dictionary
// override store a dhcpradiusd deployment uses to teach the Option
// Codec about vendor-specific option codes.
//
//	dhcpradius-dictgen -db overrides.db -put -code 224 -name Vendor-Foo -type octets
//	dhcpradius-dictgen -db overrides.db -delete -code 224
//	dhcpradius-dictgen -db overrides.db -list
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dhcpradiusd/dhcpradiusd/internal/dhcp"
	"github.com/dhcpradiusd/dhcpradiusd/internal/dictstore"
)

func main() {
	dbPath := flag.String("db", "", "path to the dictionary override database (required)")
	doList := flag.Bool("list", false, "list every override in the database")
	doPut := flag.Bool("put", false, "add or replace an override (requires -code, -name, -type)")
	doDelete := flag.Bool("delete", false, "remove an override (requires -code)")
	code := flag.Int("code", -1, "DHCP option code (0-255)")
	name := flag.String("name", "", "descriptor name, e.g. Vendor-Foo")
	typeName := flag.String("type", "octets", "descriptor type: byte, short, integer, ipaddr, string, octets, ethernet")
	array := flag.Bool("array", false, "mark the descriptor as an array option")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "error: -db is required")
		os.Exit(1)
	}

	store, err := dictstore.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *doPut:
		if *code < 0 || *code > 255 || *name == "" {
			fmt.Fprintln(os.Stderr, "error: -put requires -code (0-255) and -name")
			os.Exit(1)
		}
		typ, err := parseAttrType(*typeName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if err := store.Put(uint8(*code), *name, typ, *array); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote override for code %d (%s)\n", *code, *name)

	case *doDelete:
		if *code < 0 || *code > 255 {
			fmt.Fprintln(os.Stderr, "error: -delete requires -code (0-255)")
			os.Exit(1)
		}
		if err := store.Delete(uint8(*code)); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("deleted override for code %d\n", *code)

	case *doList:
		dict, err := store.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		listOverrides(dict)

	default:
		fmt.Fprintln(os.Stderr, "error: one of -put, -delete, or -list is required")
		os.Exit(1)
	}
}

// listOverrides walks every code and prints the ones the store
// resolves, since dhcp.Dictionary exposes only point lookups.
func listOverrides(dict dhcp.Dictionary) {
	type row struct {
		code uint8
		desc dhcp.Descriptor
	}
	var rows []row
	for code := 0; code <= 255; code++ {
		if desc, ok := dict.Lookup(uint8(code)); ok {
			rows = append(rows, row{uint8(code), desc})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].code < rows[j].code })
	for _, r := range rows {
		fmt.Printf("%3d  %-24s type=%-9s array=%v\n", r.code, r.desc.Name, r.desc.Type, r.desc.Array)
	}
}

func parseAttrType(s string) (dhcp.AttrType, error) {
	switch s {
	case "byte":
		return dhcp.TypeByte, nil
	case "short":
		return dhcp.TypeShort, nil
	case "integer":
		return dhcp.TypeInteger, nil
	case "ipaddr":
		return dhcp.TypeIPAddr, nil
	case "string":
		return dhcp.TypeString, nil
	case "octets":
		return dhcp.TypeOctets, nil
	case "ethernet":
		return dhcp.TypeEthernet, nil
	default:
		return 0, fmt.Errorf("unknown type %q", s)
	}
}
