// lz78c is a command line front end for the github.com/dsnet/lz78/lz78 package.
//
// Example usage:
//	$ lz78c -c -i report.txt -o report.txt.lz78 -md5 -v
//	$ lz78c -d -i report.txt.lz78 -o report.txt -v
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dsnet/golib/strconv"
	"github.com/google/uuid"
	"github.com/klauspost/cpuid"

	"github.com/dsnet/lz78/lz78"
)

// defaultDictSize matches the original lz78 tool's default: 2^20 records.
const defaultDictSize = 1 << 20

func main() {
	var (
		compress   = flag.Bool("c", false, "compress (mutually exclusive with -d)")
		decompress = flag.Bool("d", false, "decompress (mutually exclusive with -c)")
		inPath     = flag.String("i", "", "input path (default: standard input)")
		outPath    = flag.String("o", "", "output path (default: standard output)")
		origName   = flag.Bool("name-out", false, "on decompress with no -o, use the name recorded by -name")
		dictSizeS  = flag.String("dict-size", "", "dictionary size, e.g. 1e5 or 1048576 (compress only)")
		htSizeS    = flag.String("ht-size", "", "hash table size, must be >= dict-size (compress only)")
		name       = flag.Bool("name", false, "record the input's base name in the container (compress only)")
		keepTime   = flag.Bool("keep-time", false, "record (on compress) or restore (on decompress) the file's modification time")
		md5sum     = flag.Bool("md5", false, "record an MD5 digest of the input and verify it on decompress (compress only)")
		verbose    = flag.Bool("v", false, "print progress and diagnostics to standard error")
	)
	flag.Parse()

	if *compress == *decompress {
		fmt.Fprintln(os.Stderr, "lz78c: exactly one of -c or -d is required")
		os.Exit(2)
	}
	if *decompress && (*dictSizeS != "" || *htSizeS != "" || *name || *md5sum) {
		fmt.Fprintln(os.Stderr, "lz78c: -dict-size, -ht-size, -name, and -md5 only apply to -c")
		os.Exit(2)
	}

	runID := uuid.New().String()
	verboseLog := func(format string, args ...interface{}) {
		if !*verbose {
			return
		}
		fmt.Fprintf(os.Stderr, "[%s] "+format+"\n", append([]interface{}{runID[:8]}, args...)...)
	}

	start := time.Now()
	var err error
	if *compress {
		dictSize := uint64(defaultDictSize)
		if *dictSizeS != "" {
			dictSize, err = parseSize(*dictSizeS)
			if err != nil {
				fatalf("invalid -dict-size: %v", err)
			}
		}
		htSize := lz78.DefaultHTSize(dictSize)
		if *htSizeS != "" {
			htSize, err = parseSize(*htSizeS)
			if err != nil {
				fatalf("invalid -ht-size: %v", err)
			}
		}

		var flags lz78.Flags
		flags |= lz78.MetaDictSize
		if *name {
			flags |= lz78.MetaName
		}
		if *keepTime {
			flags |= lz78.MetaTimestamp
		}
		if *md5sum {
			flags |= lz78.MetaMD5
		}

		verboseLog("compressing %s -> %s (dict_size=%d ht_size=%d) on %s",
			displayPath(*inPath, "standard input"), displayPath(*outPath, "standard output"),
			dictSize, htSize, cpuid.CPU.BrandName)
		err = lz78.Compress(*inPath, *outPath, dictSize, htSize, flags)
	} else {
		var flags lz78.Flags
		if *origName {
			flags |= lz78.DecOrigFilename
		}
		if *keepTime {
			flags |= lz78.KeepTime
		}

		verboseLog("decompressing %s -> %s",
			displayPath(*inPath, "standard input"), displayPath(*outPath, "standard output"))
		err = lz78.Decompress(*inPath, *outPath, flags)
	}
	if err != nil {
		fatalf("%v", err)
	}
	verboseLog("done in %v", time.Since(start))
}

// parseSize parses a human-friendly size flag (e.g. "1e5", "1048576") using
// golib's prefix-aware strconv.ParsePrefix.
func parseSize(s string) (uint64, error) {
	f, err := strconv.ParsePrefix(s, strconv.AutoParse)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, lz78.ErrInvalidArgument
	}
	return uint64(f), nil
}

func displayPath(path, ambient string) string {
	if path == "" {
		return ambient
	}
	return path
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "lz78c: "+format+"\n", args...)
	os.Exit(1)
}
