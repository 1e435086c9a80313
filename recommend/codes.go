package recommend

var typeCodes = map[string]string{
	"movie":   "1",
	"tv":      "2",
	"ova":     "3",
	"ona":     "4",
	"special": "5",
	"music":   "6",
}

var genreCodes = map[string]string{
	"action":        "1",
	"adventure":     "2",
	"cars":          "3",
	"comedy":        "4",
	"dementia":      "5",
	"demons":        "6",
	"mystery":       "7",
	"drama":         "8",
	"ecchi":         "9",
	"fantasy":       "10",
	"game":          "11",
	"historical":    "13",
	"horror":        "14",
	"kids":          "15",
	"magic":         "16",
	"martial arts":  "17",
	"mecha":         "18",
	"music":         "19",
	"parody":        "20",
	"samurai":       "21",
	"romance":       "22",
	"school":        "23",
	"sci-fi":        "24",
	"shoujo":        "25",
	"shoujo ai":     "26",
	"shounen":       "27",
	"shounen ai":    "28",
	"space":         "29",
	"sports":        "30",
	"super power":   "31",
	"vampire":       "32",
	"harem":         "35",
	"slice of life": "36",
	"supernatural":  "37",
	"military":      "38",
	"police":        "39",
	"psychological": "40",
	"thriller":      "41",
	"seinen":        "42",
	"josei":         "43",
	"isekai":        "44",
}

var mangaGenreCodes = map[string]string{
	"action":        "1",
	"adventure":     "2",
	"animated":      "641",
	"anime":         "375",
	"cartoon":       "463",
	"comedy":        "3",
	"comic":         "200",
	"completed":     "326",
	"cooking":       "133",
	"detective":     "386",
	"doujinshi":     "534",
	"drama":         "10",
	"ecchi":         "41",
	"fantasy":       "17",
	"gender bender": "89",
	"harem":         "11",
	"historical":    "30",
	"horror":        "21",
	"isekai":        "70",
	"josei":         "67",
	"magic":         "420",
	"manga":         "137",
	"manhua":        "51",
	"manhwa":        "79",
	"martial arts":  "12",
	"mature":        "22",
	"mecha":         "72",
	"military":      "1180",
	"mystery":       "44",
	"one shot":      "721",
	"psychological": "23",
	"reincarnation": "1603",
	"romance":       "13",
	"school life":   "4",
	"sci-fi":        "24",
	"seinen":        "25",
	"shoujo":        "33",
	"shoujo ai":     "123",
	"shounen":       "5",
	"shounen ai":    "680",
	"slice of life": "14",
	"smut":          "734",
	"sports":        "142",
	"super power":   "28",
	"supernatural":  "6",
	"thriller":      "1816",
	"tragedy":       "97",
	"webtoon":       "60",
}
