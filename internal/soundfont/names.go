// Package soundfont describes the remote instrument sample sets: which sample files a
// set contains, where a set lives, and how a set is chosen from the published list.
package soundfont

import (
	"fmt"
	"strconv"
)

const (
	// MinOctave and MaxOctave bound the octaves of every note, inclusive.
	MinOctave = 0
	MaxOctave = 7
	// SampleExtension is the audio format suffix of every sample file.
	SampleExtension = ".mp3"

	sampleNameFormat = "%s%d%s"
)

// Notes lists the twelve chromatic note names in the spelling used by the remote sets.
var Notes = []string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// SampleName returns the file name of one note at one octave, such as "Eb3.mp3".
func SampleName(note string, octave int) string {
	return fmt.Sprintf(sampleNameFormat, note, octave, SampleExtension)
}

// SampleNames enumerates every sample file of a set, grouped by note, then by octave.
func SampleNames() []string {
	names := make([]string, 0, len(Notes)*(MaxOctave-MinOctave+1))
	for _, note := range Notes {
		for octave := MinOctave; octave <= MaxOctave; octave++ {
			names = append(names, SampleName(note, octave))
		}
	}
	return names
}

// IsSampleName reports whether name belongs to the sample grammar.
func IsSampleName(name string) bool {
	for _, note := range Notes {
		for octave := MinOctave; octave <= MaxOctave; octave++ {
			if name == note+strconv.Itoa(octave)+SampleExtension {
				return true
			}
		}
	}
	return false
}
