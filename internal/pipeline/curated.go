package pipeline

// Curated identifier lists. These pin well-known titles to the front of
// browse results (curated wins over dynamically discovered duplicates) and
// seed the default box-office dataset when no query is given.

var defaultBoxOfficeIDs = []string{
	"tt0499549", // Avatar
	"tt4154796", // Avengers: Endgame
	"tt0120338", // Titanic
	"tt2488496", // Star Wars: The Force Awakens
	"tt4154756", // Avengers: Infinity War
	"tt0369610", // Jurassic World
	"tt6105098", // The Lion King (2019)
	"tt0848228", // The Avengers
	"tt2820852", // Furious 7
	"tt4520988", // Frozen II
}

var boxOfficeSeedTerms = []string{
	"Avengers",
	"Star Wars",
	"Batman",
	"Spider-Man",
	"Mission Impossible",
	"Fast and Furious",
	"Jurassic",
	"Harry Potter",
	"Pixar",
	"James Bond",
}

var knownGenres = []string{
	"Action",
	"Adventure",
	"Animation",
	"Comedy",
	"Crime",
	"Documentary",
	"Drama",
	"Fantasy",
	"Horror",
	"Mystery",
	"Romance",
	"Sci-Fi",
	"Thriller",
}

var genreCuratedIDs = map[string][]string{
	"action": {
		"tt4154796", "tt0848228", "tt0468569", "tt0133093", "tt1392190",
		"tt1375666", "tt2911666", "tt4154756", "tt1825683", "tt4912910",
	},
	"adventure": {
		"tt0120737", "tt0167260", "tt0167261", "tt2488496", "tt0107290",
		"tt0363771", "tt0120915", "tt1201607", "tt0325980", "tt0848228",
	},
	"animation": {
		"tt4633694", "tt2096673", "tt2948356", "tt2294629", "tt3521164",
		"tt0317705", "tt0266543", "tt2380307", "tt1979376", "tt1323594",
	},
	"comedy": {
		"tt0107048", "tt0088763", "tt0106611", "tt1119646", "tt0357413",
		"tt0829482", "tt1478338", "tt0091042", "tt0118715", "tt0377092",
	},
	"crime": {
		"tt0110912", "tt0114369", "tt0468569", "tt0137523", "tt0102926",
		"tt0099685", "tt0110413", "tt0208092", "tt0112384", "tt0068646",
	},
	"drama": {
		"tt0111161", "tt0109830", "tt0172495", "tt0816692", "tt0120338",
		"tt2582802", "tt0209144", "tt0108052", "tt1853728", "tt0993846",
	},
	"fantasy": {
		"tt0120737", "tt0167260", "tt0241527", "tt1201607", "tt0107290",
		"tt6139732", "tt4633694", "tt0363771", "tt0295297", "tt0304141",
	},
	"horror": {
		"tt7784604", "tt1457767", "tt0081505", "tt2316204", "tt0100157",
		"tt0078748", "tt3385516", "tt0290673", "tt2568844", "tt0080761",
	},
	"mystery": {
		"tt0482571", "tt1375666", "tt0114369", "tt0209144", "tt0137523",
		"tt0443706", "tt0114814", "tt1853728", "tt0327056", "tt0119174",
	},
	"romance": {
		"tt0332280", "tt0120338", "tt0109830", "tt3783958", "tt3104988",
		"tt0147800", "tt0108160", "tt0993846", "tt0101761", "tt1825683",
	},
	"sci-fi": {
		"tt0816692", "tt0088763", "tt1375666", "tt2488496", "tt0133093",
		"tt0080684", "tt1454468", "tt1856101", "tt0083658", "tt1182345",
	},
	"thriller": {
		"tt0114369", "tt0482571", "tt0137523", "tt0266697", "tt1877830",
		"tt0114814", "tt0120586", "tt0167404", "tt1130884", "tt0468569",
	},
}
