package main

//CLI interface to generate deterministic synthetic ICRH records: fast acquisition shots following the
//shot_<event>_<board>.dat convention and conditioning logs with a parameter header. Intention is to fill a
//directory that can be served by a "dir" remote or inspected with icrhDiag without access to the acquisition host
import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"icrhDiag/mocks"
	"icrhDiag/schema"
	"icrhDiag/testUtils"
)

func main() {
	outDir := flag.String("out", "", "directory receiving the Fast_Data and Conditionnement folders")
	firstShot := flag.Int("first", 1000, "event id of the first shot")
	shots := flag.Int("shots", 3, "how many shots should be generated")
	rows := flag.Int("rows", 1000, "data lines per file")
	condi := flag.Int("condi", 1, "how many conditioning logs should be generated")

	flag.Parse()

	if *outDir == "" {
		fmt.Println("Set \"out\"!")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fastDir := filepath.Join(*outDir, "Fast_Data")
	condiDir := filepath.Join(*outDir, "Conditionnement")
	for _, dir := range []string{fastDir, condiDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create %v : %v", dir, err)
		}
	}

	for event := *firstShot; event < *firstShot+*shots; event++ {
		if _, err := mocks.CreateShotFiles(fastDir, event, mocks.AllBoards, *rows); err != nil {
			log.Fatalf("Failed to create shot %v : %v", event, err)
		}
	}

	s, err := schema.Lookup(schema.Conditioning)
	if err != nil {
		log.Fatalf("No conditioning layout : %v", err)
	}
	for i := 0; i < *condi; i++ {
		header := testUtils.HeaderLines(s,
			[2]string{"Antenne", "Q2"},
			[2]string{"Frequence", "55.5"},
			[2]string{"Essai", fmt.Sprint(i)},
		)
		lines := append(header, testUtils.SyntheticLines(s, *rows, 1000, int64(i))...)
		name := fmt.Sprintf("condi_%03d.csv", i)
		if _, err := testUtils.WriteLines(condiDir, name, lines); err != nil {
			log.Fatalf("Failed to write %v : %v", name, err)
		}
	}
	log.Printf("wrote %v shots and %v conditioning logs to %v", *shots, *condi, *outDir)
}
