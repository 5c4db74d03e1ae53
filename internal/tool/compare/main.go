// +build ignore

package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/dsnet/lz78/internal/tool/compare"
)

const (
	defaultTests = "encRate,decRate,ratio"
	defaultFiles = "zeros.bin,random.bin,binary.bin,repeats.bin,huffman.txt,digits.txt,twain.txt"
)

func main() {
	f0 := flag.String("tests", defaultTests, "list of comparisons to run: encRate,decRate,ratio")
	f1 := flag.String("codecs", strings.Join(compare.AllCodecs, ","), "list of codecs to compare")
	f2 := flag.String("paths", "", "list of paths to search for test files")
	f3 := flag.String("files", defaultFiles, "list of input files to compare")
	flag.Parse()

	tests := strings.Split(*f0, ",")
	codecs := strings.Split(*f1, ",")
	var paths []string
	if *f2 != "" {
		paths = strings.Split(*f2, ",")
	}
	files := strings.Split(*f3, ",")

	for _, t := range tests {
		var results [][]compare.Result
		var names []string
		switch t {
		case "encRate":
			results, names = compare.EncodeRateSuite(paths, codecs, files)
		case "decRate":
			results, names = compare.DecodeRateSuite(paths, codecs, files)
		case "ratio":
			results, names = compare.RatioSuite(paths, codecs, files)
		default:
			fmt.Printf("unknown test %q\n", t)
			continue
		}
		printTable(t, codecs, names, results)
	}
}

func printTable(test string, codecs, names []string, results [][]compare.Result) {
	fmt.Printf("COMPARE: %s\n", test)
	fmt.Printf("\t%-24s", "file")
	for _, c := range codecs {
		fmt.Printf("%12s  delta ", c)
	}
	fmt.Println()
	for i, name := range names {
		fmt.Printf("\t%-24s", name)
		for j := range codecs {
			fmt.Printf("%12.3f %5.2fx ", results[i][j].R, results[i][j].D)
		}
		fmt.Println()
	}
	fmt.Println()
}
