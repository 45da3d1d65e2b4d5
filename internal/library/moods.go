package library

// Mood is a track's curation vector. Energy runs 0 (ambient) to 1
// (danceable); Warmth runs 0 (cold, electronic) to 1 (warm, organic);
// Vibe is a coarse grouping label.
type Mood struct {
	Energy float64
	Warmth float64
	Vibe   string
}

// VibeUnknown is the classification for tracks matching no signature.
const VibeUnknown = "unknown"

type signature struct {
	keyword string
	mood    Mood
}

// moodSignatures maps lowercase path substrings to moods. Most entries
// are artist names; a few are genre keywords so folder names like
// "jazz/" classify their contents. Kept as a slice so equal-length
// matches resolve deterministically (first entry wins).
var moodSignatures = []signature{
	// Ambient and chill
	{"ambient", Mood{0.15, 0.5, "ambient"}},
	{"brian eno", Mood{0.1, 0.6, "ambient"}},
	{"aphex twin", Mood{0.3, 0.2, "electronic"}},
	{"boards of canada", Mood{0.25, 0.7, "ambient"}},
	{"burial", Mood{0.35, 0.3, "electronic"}},
	{"jon hopkins", Mood{0.4, 0.4, "electronic"}},
	{"tycho", Mood{0.3, 0.6, "ambient"}},
	{"bonobo", Mood{0.4, 0.6, "downtempo"}},

	// Jazz
	{"jazz", Mood{0.35, 0.9, "jazz"}},
	{"coltrane", Mood{0.5, 0.9, "jazz"}},
	{"miles davis", Mood{0.4, 0.85, "jazz"}},
	{"bill evans", Mood{0.25, 0.95, "jazz"}},
	{"dave brubeck", Mood{0.4, 0.85, "jazz"}},
	{"art blakey", Mood{0.55, 0.85, "jazz"}},
	{"cannonball", Mood{0.5, 0.9, "jazz"}},
	{"thelonious monk", Mood{0.4, 0.85, "jazz"}},
	{"nujabes", Mood{0.35, 0.8, "jazz"}},
	{"aruarian", Mood{0.3, 0.85, "jazz"}},

	// Classical
	{"classical", Mood{0.25, 0.8, "classical"}},
	{"chopin", Mood{0.2, 0.9, "classical"}},
	{"debussy", Mood{0.2, 0.85, "classical"}},
	{"arvo pärt", Mood{0.15, 0.9, "classical"}},
	{"arvo part", Mood{0.15, 0.9, "classical"}},
	{"satie", Mood{0.15, 0.85, "classical"}},
	{"bach", Mood{0.3, 0.8, "classical"}},
	{"ravel", Mood{0.3, 0.85, "classical"}},

	// Soul and R&B
	{"soul", Mood{0.5, 0.95, "soul"}},
	{"al green", Mood{0.45, 0.95, "soul"}},
	{"marvin gaye", Mood{0.5, 0.95, "soul"}},
	{"d'angelo", Mood{0.45, 0.9, "soul"}},
	{"erykah badu", Mood{0.4, 0.9, "soul"}},
	{"stevie wonder", Mood{0.6, 0.95, "soul"}},
	{"aretha", Mood{0.6, 0.95, "soul"}},
	{"otis redding", Mood{0.55, 0.95, "soul"}},
	{"sade", Mood{0.35, 0.9, "soul_slow"}},
	{"frank ocean", Mood{0.35, 0.85, "soul_slow"}},

	// Funk and disco
	{"funk", Mood{0.75, 0.85, "funk"}},
	{"disco", Mood{0.8, 0.7, "disco"}},
	{"james brown", Mood{0.8, 0.9, "funk"}},
	{"parliament", Mood{0.75, 0.85, "funk"}},
	{"prince", Mood{0.7, 0.8, "funk"}},
	{"donna summer", Mood{0.85, 0.7, "disco"}},
	{"bee gees", Mood{0.75, 0.75, "disco"}},
	{"chic", Mood{0.8, 0.75, "disco"}},
	{"anderson paak", Mood{0.65, 0.85, "funk"}},
	{"vulfpeck", Mood{0.65, 0.9, "funk"}},

	// Hip-hop
	{"tribe called quest", Mood{0.55, 0.8, "hiphop_chill"}},
	{"j dilla", Mood{0.45, 0.85, "hiphop_chill"}},
	{"madlib", Mood{0.4, 0.75, "hiphop_chill"}},
	{"mf doom", Mood{0.45, 0.7, "hiphop_chill"}},
	{"kendrick", Mood{0.65, 0.75, "hiphop"}},
	{"kanye", Mood{0.7, 0.6, "hiphop"}},
	{"tyler", Mood{0.6, 0.7, "hiphop"}},
	{"outkast", Mood{0.7, 0.8, "hiphop"}},

	// Bossa and Brazilian
	{"bossa", Mood{0.3, 0.95, "bossa"}},
	{"jobim", Mood{0.3, 0.95, "bossa"}},
	{"gilberto", Mood{0.3, 0.95, "bossa"}},
	{"astrud", Mood{0.3, 0.95, "bossa"}},
	{"getz", Mood{0.35, 0.9, "bossa"}},
	{"buena vista", Mood{0.45, 0.95, "world"}},

	// Reggae and dub
	{"reggae", Mood{0.45, 0.85, "dub"}},
	{"dub", Mood{0.4, 0.75, "dub"}},
	{"bob marley", Mood{0.5, 0.9, "dub"}},
	{"king tubby", Mood{0.4, 0.7, "dub"}},
	{"lee perry", Mood{0.45, 0.75, "dub"}},
	{"augustus pablo", Mood{0.35, 0.8, "dub"}},
	{"burning spear", Mood{0.5, 0.85, "dub"}},
	{"black uhuru", Mood{0.5, 0.8, "dub"}},
	{"toots", Mood{0.55, 0.9, "dub"}},
	{"dennis brown", Mood{0.5, 0.9, "dub"}},

	// Downtempo and trip-hop
	{"downtempo", Mood{0.35, 0.6, "downtempo"}},
	{"trip-hop", Mood{0.4, 0.5, "downtempo"}},
	{"massive attack", Mood{0.45, 0.5, "downtempo"}},
	{"portishead", Mood{0.35, 0.4, "downtempo"}},
	{"tricky", Mood{0.4, 0.45, "downtempo"}},
	{"thievery corporation", Mood{0.4, 0.6, "downtempo"}},
	{"kruder", Mood{0.35, 0.6, "downtempo"}},
	{"dorfmeister", Mood{0.35, 0.6, "downtempo"}},
	{"nightmares on wax", Mood{0.4, 0.7, "downtempo"}},

	// Indie and alternative
	{"radiohead", Mood{0.5, 0.5, "indie"}},
	{"arcade fire", Mood{0.65, 0.6, "indie"}},
	{"bon iver", Mood{0.3, 0.75, "indie"}},
	{"beach house", Mood{0.35, 0.6, "indie"}},
	{"tame impala", Mood{0.55, 0.65, "indie"}},
	{"mac demarco", Mood{0.4, 0.75, "indie"}},
	{"khruangbin", Mood{0.45, 0.8, "indie"}},
	{"gorillaz", Mood{0.55, 0.6, "indie"}},
	{"alt-j", Mood{0.45, 0.55, "indie"}},
	{"sigur ros", Mood{0.35, 0.7, "indie"}},

	// Electronic and dance
	{"electronic", Mood{0.7, 0.3, "electronic"}},
	{"house", Mood{0.75, 0.4, "electronic"}},
	{"techno", Mood{0.8, 0.2, "electronic"}},
	{"daft punk", Mood{0.75, 0.5, "electronic"}},
	{"four tet", Mood{0.5, 0.55, "electronic_chill"}},
	{"floating points", Mood{0.5, 0.5, "electronic_chill"}},
	{"jamie xx", Mood{0.6, 0.5, "electronic"}},
	{"kaytranada", Mood{0.65, 0.6, "electronic"}},
	{"flume", Mood{0.7, 0.45, "electronic"}},

	// World
	{"world", Mood{0.5, 0.9, "world"}},
	{"fela kuti", Mood{0.65, 0.9, "world"}},
	{"ali farka", Mood{0.45, 0.95, "world"}},
	{"youssou ndour", Mood{0.6, 0.9, "world"}},
	{"tinariwen", Mood{0.5, 0.85, "world"}},
	{"mulatu", Mood{0.45, 0.9, "world"}},

	// Arabic
	{"amr diab", Mood{0.55, 0.9, "world"}},
	{"عمرو دياب", Mood{0.55, 0.9, "world"}},
	{"fairuz", Mood{0.35, 0.95, "world"}},
	{"umm kulthum", Mood{0.4, 0.95, "world"}},
	{"abdel halim", Mood{0.45, 0.95, "world"}},
	{"ahmed mounib", Mood{0.4, 0.95, "world"}},
	{"salah ragab", Mood{0.55, 0.9, "jazz"}},

	// Lo-fi beats
	{"lofi", Mood{0.25, 0.7, "downtempo"}},
	{"lo-fi", Mood{0.25, 0.7, "downtempo"}},
	{"tomppabeats", Mood{0.25, 0.75, "downtempo"}},
	{"jinsang", Mood{0.25, 0.7, "downtempo"}},
	{"idealism", Mood{0.2, 0.75, "downtempo"}},
	{"uyama hiroto", Mood{0.3, 0.8, "jazz"}},

	// More indie
	{"men i trust", Mood{0.35, 0.65, "indie"}},
	{"magdalena bay", Mood{0.55, 0.5, "indie"}},
	{"charli xcx", Mood{0.75, 0.4, "electronic"}},
	{"lana del rey", Mood{0.3, 0.7, "indie"}},
	{"fka twigs", Mood{0.45, 0.5, "electronic"}},
	{"yellow days", Mood{0.4, 0.75, "indie"}},

	// Rock
	{"pink floyd", Mood{0.45, 0.6, "rock"}},
	{"led zeppelin", Mood{0.7, 0.7, "rock"}},
	{"the beatles", Mood{0.5, 0.8, "rock"}},
	{"beatles", Mood{0.5, 0.8, "rock"}},
	{"fleetwood mac", Mood{0.55, 0.75, "rock"}},
	{"steely dan", Mood{0.5, 0.8, "rock"}},

	// More hip-hop
	{"young thug", Mood{0.7, 0.5, "hiphop"}},
	{"playboi carti", Mood{0.75, 0.35, "hiphop"}},
	{"travis scott", Mood{0.75, 0.45, "hiphop"}},
	{"a$ap rocky", Mood{0.65, 0.55, "hiphop"}},
	{"asap rocky", Mood{0.65, 0.55, "hiphop"}},

	// More electronic
	{"against all logic", Mood{0.6, 0.5, "electronic"}},
	{"nicolas jaar", Mood{0.45, 0.55, "electronic_chill"}},
	{"100 gecs", Mood{0.85, 0.2, "electronic"}},

	// K-pop
	{"loona", Mood{0.75, 0.5, "electronic"}},
	{"이달의 소녀", Mood{0.75, 0.5, "electronic"}},

	// Rock and adjacent
	{"rock", Mood{0.7, 0.6, "rock"}},
	{"depeche mode", Mood{0.55, 0.4, "electronic"}},
	{"cocteau twins", Mood{0.4, 0.6, "indie"}},
	{"cherry-coloured", Mood{0.4, 0.6, "indie"}},

	// Pop
	{"britney", Mood{0.8, 0.5, "electronic"}},
	{"dua lipa", Mood{0.8, 0.55, "disco"}},
	{"drake", Mood{0.6, 0.6, "hiphop"}},
}
