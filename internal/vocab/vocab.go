package vocab

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Category groups dictionary terms by how they are used on the mat.
type Category string

const (
	Positions   Category = "positions"
	Submissions Category = "submissions"
	Techniques  Category = "techniques"
	Portuguese  Category = "portuguese"
	Japanese    Category = "japanese"
	General     Category = "general"
)

// Dictionary holds the Brazilian Jiu-Jitsu vocabulary used to steer both
// whisper and the correction model toward domain terms.
type Dictionary struct {
	terms       map[Category][]string
	corrections map[string]string
}

// NewDictionary builds a dictionary seeded with the built-in term lists.
func NewDictionary() *Dictionary {
	d := &Dictionary{
		terms:       map[Category][]string{},
		corrections: map[string]string{},
	}
	d.loadDefaultTerms()
	d.loadDefaultCorrections()
	return d
}

// LoadTermsFile merges additional terms from a plain-text file. Lines are one
// term each; `[category]` headers switch the active category and `#` starts a
// comment.
func (d *Dictionary) LoadTermsFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read terms file: %w", err)
	}
	current := General
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			switch Category(name) {
			case Positions, Submissions, Techniques, Portuguese, Japanese:
				current = Category(name)
			default:
				current = General
			}
			continue
		}
		d.AddTerm(current, line)
	}
	return nil
}

// AddTerm appends a term to a category, skipping duplicates.
func (d *Dictionary) AddTerm(category Category, term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	for _, existing := range d.terms[category] {
		if strings.EqualFold(existing, term) {
			return
		}
	}
	d.terms[category] = append(d.terms[category], term)
}

// Terms returns the terms in one category.
func (d *Dictionary) Terms(category Category) []string {
	return append([]string(nil), d.terms[category]...)
}

// AllTerms flattens every category into one sorted list.
func (d *Dictionary) AllTerms() []string {
	var all []string
	for _, terms := range d.terms {
		all = append(all, terms...)
	}
	sort.Strings(all)
	return all
}

// Contains reports whether the dictionary knows a term, ignoring case.
func (d *Dictionary) Contains(term string) bool {
	for _, terms := range d.terms {
		for _, t := range terms {
			if strings.EqualFold(t, term) {
				return true
			}
		}
	}
	return false
}

// Corrections returns the built-in mishearing map (wrong form, lowercased, to
// the preferred spelling). It backs offline correction when no model is
// reachable.
func (d *Dictionary) Corrections() map[string]string {
	out := make(map[string]string, len(d.corrections))
	for k, v := range d.corrections {
		out[k] = v
	}
	return out
}

func (d *Dictionary) loadDefaultTerms() {
	d.terms[Positions] = []string{
		"Guard", "Open Guard", "Closed Guard", "Half Guard", "Deep Half Guard",
		"Z-Guard", "K-Guard", "Butterfly Guard", "Seated Guard", "Guard Retention",
		"Guard Recovery", "Guard Pull", "Turtle", "Sprawl", "Base", "Posture",
		"Framing", "Grips", "Grip Fighting", "Collar Grip", "Sleeve Grip",
		"Gable Grip", "Seatbelt Grip", "Underhook", "Overhook", "Whizzer",
		"Crossface", "Hip Escape", "Shrimp", "Bridge", "Upa", "Granby Roll",
		"Technical Stand-up", "Mount", "High Mount", "S-Mount", "Technical Mount",
		"Back Mount", "Back Control", "Hooks", "Body Triangle", "Side Control",
		"Kesa Gatame", "North-South", "Knee on Belly", "Headquarters",
		"Leg Drag", "Stack Pass", "Torreando Pass", "Over-Under Pass",
		"Double Under Pass", "Knee Cut Pass", "Knee Slice Pass", "X-Pass",
		"Smash Pass", "Pressure Pass", "Spider Guard", "Lasso Guard",
		"De La Riva Guard", "Reverse De La Riva Guard", "X-Guard",
		"Single Leg X-Guard", "50/50 Guard", "Ashi Garami", "Outside Ashi Garami",
		"Inside Sankaku", "Saddle", "Honey Hole", "411", "Lockdown",
		"Electric Chair", "Rubber Guard", "Crab Ride", "Berimbolo", "Inversion",
	}
	d.terms[Submissions] = []string{
		"Armbar", "Straight Armbar", "Juji Gatame", "Kimura", "Americana",
		"Keylock", "Ude Garami", "Omoplata", "Wrist Lock", "Gogoplata",
		"Triangle Choke", "Arm Triangle Choke", "D'Arce Choke", "Brabo Choke",
		"Anaconda Choke", "Peruvian Necktie", "Guillotine Choke",
		"High Elbow Guillotine", "Rear Naked Choke", "RNC", "Mata Leão",
		"Bow and Arrow Choke", "Cross Collar Choke", "Ezekiel Choke",
		"Clock Choke", "Paper Cutter Choke", "Baseball Bat Choke", "Loop Choke",
		"North-South Choke", "Von Flue Choke", "Heel Hook", "Inside Heel Hook",
		"Outside Heel Hook", "Kneebar", "Toe Hold", "Ankle Lock",
		"Straight Ankle Lock", "Estima Lock", "Calf Slicer", "Bicep Slicer",
		"Tarikoplata", "Baratoplata", "Monoplata", "Banana Split",
	}
	d.terms[Techniques] = []string{
		"Submission", "Tap", "Roll", "Spar", "Flow Roll", "Drill",
		"Positional Sparring", "Live Training", "Scramble", "Transition",
		"Reversal", "Sweep", "Counter", "Defense", "Escape", "Pin",
		"Dominant Position", "Top Position", "Bottom Position", "Leverage",
		"Timing", "Feint", "Combination", "Body Lock", "Body Lock Pass",
		"Wrestling Up", "Single Leg Takedown", "Double Leg Takedown",
		"Ankle Pick", "Snap Down", "Arm Drag", "Foot Sweep", "Hip Toss",
		"Off-balancing", "Kuzushi",
	}
	d.terms[Portuguese] = []string{
		"Guarda", "Guarda Fechada", "Meia Guarda", "Guarda Aranha",
		"Guarda De La Riva", "Guarda X", "Guarda Borboleta", "Montada",
		"Cem Quilos", "Joelho na Barriga", "Baiana", "Queda", "Raspagem",
		"Passagem de Guarda", "Estrangulamento", "Mata Leão", "Triângulo",
		"Chave de Braço", "Chave de Pé", "Pegada", "Gola", "Manga", "Lapela",
		"Faixa", "Kimono", "Rolamento", "Fuga de Quadril", "Ponte", "Tatame",
		"Jiu-Jitsu", "Crucifixo", "Mão de Vaca", "Gravata",
	}
	d.terms[Japanese] = []string{
		"Dojo", "Sensei", "Professor", "Oss", "Gi", "Obi", "Shime", "Jime",
		"Newaza", "Tachi-waza", "Ukemi", "Kesa Gatame", "Kata Gatame",
		"Juji Gatame", "Ude Garami", "Ashi Garami", "Hiza Gatame",
		"Sankaku Jime", "Hadaka Jime", "Okuri Eri Jime", "Kataha Jime",
		"Tatami", "Randori", "Hajime", "Matte", "Rei", "Kuzushi",
	}
}

func (d *Dictionary) loadDefaultCorrections() {
	pairs := [][2]string{
		{"coast guard", "closed guard"},
		{"clothes guard", "closed guard"},
		{"close guard", "closed guard"},
		{"full cord", "full guard"},
		{"half cord", "half guard"},
		{"x cord", "x guard"},
		{"butterfly cord", "butterfly guard"},
		{"butterfly god", "butterfly guard"},
		{"spider cord", "spider guard"},
		{"spider god", "spider guard"},
		{"arm bar", "armbar"},
		{"kimora", "kimura"},
		{"triangle joke", "triangle choke"},
		{"rear naked joke", "rear naked choke"},
		{"jujitsu", "jiu-jitsu"},
		{"gee", "gi"},
		{"no gee", "no-gi"},
		{"side mount", "side control"},
		{"north south", "north-south"},
		{"key lock", "keylock"},
		{"delaware", "de la riva"},
		{"dela riva", "de la riva"},
		{"de la hiva", "de la riva"},
		{"berimbo", "berimbolo"},
		{"guilatine", "guillotine"},
		{"tornado pass", "torreando pass"},
		{"fifty fifty", "50/50"},
		{"four eleven", "411"},
	}
	for _, p := range pairs {
		d.corrections[strings.ToLower(p[0])] = p[1]
	}
}
