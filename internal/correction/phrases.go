package correction

// phraseCorrections maps a single misread token to its correction. Keys are
// lower case and never dictionary words.
var phraseCorrections = map[string]string{
	// departemen
	"departntn":  "departemen",
	"departtmen": "departemen",
	"departnen":  "departemen",
	"departmon":  "departemen",
	"departomon": "departemen",
	"depatemen":  "departemen",
	"dopartemen": "departemen",
	"departemn":  "departemen",
	"deprtemen":  "departemen",
	"dpartemen":  "departemen",
	"departemem": "departemen",
	"dopartoron": "departemen",
	"departoron": "departemen",

	// pekerjaan
	"pcaai":     "pekerjaan",
	"pkaai":     "pekerjaan",
	"pkerjaan":  "pekerjaan",
	"pekrjaan":  "pekerjaan",
	"pekerjan":  "pekerjaan",
	"ptsyaai":   "pekerjaan",
	"pekerjaa":  "pekerjaan",
	"pokerjan":  "pekerjaan",
	"pckerjaan": "pekerjaan",
	"pekcrjaan": "pekerjaan",

	// glued headers
	"departntnptsyaai":    "departemen pekerjaan umum",
	"departntnptsjaai":    "departemen pekerjaan umum",
	"departntnpcaai":      "departemen pekerjaan umum",
	"departomenpekerjaan": "departemen pekerjaan umum",
	"departemenpekerjaan": "departemen pekerjaan",
	"pusatcaagtcigara":    "pusat jawatan gedung negara",
	"caagtcigara":         "gedung negara",

	// agencies
	"djawaton": "djawatan",
	"djawuten": "djawatan",
	"djwatan":  "djawatan",
	"gecung":   "gedung",
	"gedun":    "gedung",
	"gsdung":   "gedung",
	"negera":   "negara",
	"nogara":   "negara",
	"negora":   "negara",
	"nfg":      "negara",
	"ngara":    "negara",
	"nognra":   "negara",
	"nogrra":   "negara",

	"penundjukan": "penunjukan",
	"peninyutan":  "penunjukan",

	// addresses
	"jkrtn":         "jakarta",
	"jakrta":        "jakarta",
	"jakart":        "jakarta",
	"jakarto":       "jakarta",
	"jakartn":       "jakarta",
	"jakartau":      "jakarta",
	"jaksra":        "jakarta",
	"djakrta":       "djakarta",
	"jelan":         "jalan",
	"jlan":          "jalan",
	"jatan":         "jalan",
	"jeln":          "jalan",
	"krmat":         "kramat",
	"krmet":         "kramat",
	"kramet":        "kramat",
	"krmnt":         "kramat",
	"djuanda":       "juanda",
	"kebajoranbaru": "kebayoran baru",
	"kebajoran":     "kebayoran",
	"kotaoran":      "kotamadya",
	"kotapraja":     "kotamadya",

	// date abbreviations
	"tgl": "tanggal",
	"bln": "bulan",
	"thn": "tahun",

	// months
	"danuari":   "januari",
	"djanu":     "januari",
	"januart":   "januari",
	"januarl":   "januari",
	"janvarl":   "januari",
	"febr":      "februari",
	"fobruari":  "februari",
	"feruari":   "februari",
	"februart":  "februari",
	"mrt":       "maret",
	"marot":     "maret",
	"marct":     "maret",
	"aprl":      "april",
	"aprll":     "april",
	"aprit":     "april",
	"appr":      "april",
	"djuni":     "juni",
	"junl":      "juni",
	"junt":      "juni",
	"djuli":     "juli",
	"jull":      "juli",
	"jult":      "juli",
	"djull":     "juli",
	"agustoes":  "agustus",
	"agsts":     "agustus",
	"agustns":   "agustus",
	"agustua":   "agustus",
	"aguatus":   "agustus",
	"soptonbor": "september",
	"soptonber": "september",
	"soptember": "september",
	"septenbor": "september",
	"septonber": "september",
	"septenber": "september",
	"septembor": "september",
	"soptenbor": "september",
	"soptomber": "september",
	"septomber": "september",
	"scptember": "september",
	"soptembar": "september",
	"septamber": "september",
	"septembar": "september",
	"soptombor": "september",
	"sntenhar":  "september",
	"oktobor":   "oktober",
	"oktobar":   "oktober",
	"oktobet":   "oktober",
	"octobor":   "oktober",
	"octobar":   "oktober",
	"noombo":    "november",
	"nopmber":   "november",
	"novmber":   "november",
	"novembor":  "november",
	"novomber":  "november",
	"novembcr":  "november",
	"novamber":  "november",
	"desembor":  "desember",
	"desomber":  "desember",
	"decembor":  "desember",
	"desambor":  "desember",

	// common words
	"ketarangan":  "keterangan",
	"ketrangan":   "keterangan",
	"keterangn":   "keterangan",
	"koterangan":  "keterangan",
	"ketsraigan":  "keterangan",
	"katerangan":  "keterangan",
	"keterangen":  "keterangan",
	"berllaku":    "berlaku",
	"berlku":      "berlaku",
	"rmah":        "rumah",
	"runh":        "rumah",
	"rumh":        "rumah",
	"runah":       "rumah",
	"rugah":       "rumah",
	"ruah":        "rumah",
	"tmpat":       "tempat",
	"tempt":       "tempat",
	"tompt":       "tempat",
	"tinga1":      "tinggal",
	"tingal":      "tinggal",
	"tinggol":     "tinggal",
	"citinggal":   "ditinggalkan",
	"citinggol":   "ditinggalkan",
	"ditempti":    "ditempati",
	"ditempatl":   "ditempati",
	"ditompti":    "ditempati",
	"ditenpati":   "ditempati",
	"ditompati":   "ditempati",
	"monciri":     "menghuni",
	"monciari":    "menghuni",
	"menciri":     "menghuni",
	"dibcrikn":    "diberikan",
	"aibawah":     "dibawah",
	"kpala":       "kepala",
	"kepal":       "kepala",
	"kepnla":      "kepala",
	"kopala":      "kepala",
	"kopnla":      "kepala",
	"konala":      "kepala",
	"kotala":      "kepala",
	"direkur":     "direktur",
	"direktr":     "direktur",
	"gicn":        "bagian",
	"pantkat":     "pangkat",
	"pantkatm":    "pangkat",
	"pangkt":      "pangkat",
	"gadji":       "gaji",
	"pokol":       "pokok",
	"seblan":      "sebulan",
	"sbulan":      "sebulan",
	"scbesr":      "sebesar",
	"sobosar":     "sebesar",
	"histri":      "istri",
	"hiatri":      "istri",
	"istr":        "istri",
	"suam":        "suami",
	"ank":         "anak",
	"anaks":       "anak",
	"anals":       "anak",
	"tanaks":      "anak",
	"kalcak":      "kakak",
	"halman":      "halaman",
	"halamn":      "halaman",
	"nomoa":       "nomor",
	"nomr":        "nomor",
	"nomer":       "nomor",
	"nomer1":      "nomor",
	"srat":        "surat",
	"surt":        "surat",
	"strat":       "surat",
	"turat":       "surat",
	"katp":        "kartu",
	"monurut":     "menurut",
	"persowaan":   "persewaan",
	"persowaen":   "persewaan",
	"persowear":   "persewaan",
	"porsowaan":   "persewaan",
	"persetaan":   "persewaan",
	"pembanto":    "pembantu",
	"bondaiara":   "bendahara",
	"lampiraz":    "lampiran",
	"ruijah":      "rupiah",
	"rupijah":     "rupiah",
	"korata":      "kepada",
	"kepeda":      "kepada",
	"kansor":      "kantor",
	"conagian":    "cabang",
	"tancgaz":     "tanggal",
	"tancgal":     "tanggal",
	"targgal":     "tanggal",
	"lanns":       "lunas",
	"dilunashe":   "dilunaskan",
	"pondngatang": "pendapatan",
	"dongan":      "dengan",
	"nonorangan":  "menerangkan",
	"baiwa":       "bahwa",
	"hiang":       "yang",
	"toriota":     "tersebut",
	"tbtoah":      "tersebut",
	"dar1":        "dari",
	"tolah":       "telah",
	"teiah":       "telah",
	"sowa":        "sewa",
	"sowe":        "sewa",
	"boli":        "beli",
	"bol1":        "beli",
	"scbagai":     "sebagai",
	"sobagian":    "sebagian",
	"sobgainara":  "sebagaimana",
	"sobagaimana": "sebagaimana",
	"sebagainana": "sebagaimana",
	"caimana":     "sebagaimana",
	"wrtul":       "untuk",
	"urtuk":       "untuk",
	"intuk":       "untuk",
	"untul":       "untuk",
	"fihak":       "pihak",
	"bogawai":     "pegawai",
	"pogawai":     "pegawai",
	"jogawai":     "pegawai",
	"pasuruh":     "pesuruh",
	"pesurnh":     "pesuruh",
	"dikearkan":   "dikeluarkan",
	"4tas":        "atas",
	"berkehendal": "dikehendaki",
	"mostlnya":    "mestinya",
	"sallnan":     "salinan",
	"salfnan":     "salinan",
	"disampaiknn": "disampaikan",
	"disampikan":  "disampaikan",
	"kcputusan":   "keputusan",
	"koputusan":   "keputusan",
	"hrrmat":      "hormat",
	"belanya":     "belanja",
	"lunasnia":    "lunasnya",
	"dibajar":     "dibayar",
	"pembajaran":  "pembayaran",
	"penyualan":   "penjualan",
	"pendjajan":   "penjualan",
	"agaria":      "agraria",
	"djendral":    "jenderal",
	"undang2":     "undang-undang",
	"undang-2":    "undang-undang",
	"scwa-beli":   "sewa-beli",
	"sowa-beli":   "sewa-beli",
	"scwabeli":    "sewa-beli",
	"pemerin":     "pemeriksa",

	// verbs
	"menberitahukan": "memberitahukan",
	"nemberitahukan": "memberitahukan",
	"monyerahkan":    "menyerahkan",
	"noninggrlkan":   "meninggalkan",
	"meningcalkan":   "meninggalkan",
	"murgosongkan":   "mengosongkan",
	"nengosonslan":   "mengosongkan",
	"morgalihkar":    "mengalihkan",
	"monclihara":     "memelihara",
	"nonporbaiki":    "memperbaiki",
	"nenperbaiki":    "memperbaiki",
	"nenanccung":     "menanggung",
	"nicrarggurg":    "menanggung",
	"diturjuk":       "ditunjuk",
	"ditunyuk":       "ditunjuk",

	// nouns
	"porusakan":   "kerusakan",
	"korusakan":   "kerusakan",
	"kckliruan":   "kekeliruan",
	"kosnlahan":   "kesalahan",
	"kclaliarrja": "kelalaiannya",
	"jabatarrja":  "jabatannya",

	// names
	"mastoreoicig": "maryorejo",
	"mastorzooig":  "maryorejo",
	"marrowj0j0":   "martowijojo",
	"simnh":        "simuh",
	"maineh":       "mainah",
	"sukatl":       "sukati",
	"sukatil":      "sukati",
	"suwartt":      "suwarti",
	"kasmnem":      "kasminem",

	// housing contracts
	"kontraksewa":      "kontrak-sewa-beli",
	"kontraksewa-beli": "kontrak-sewa-beli",
	"kontrak-sewa":     "kontrak-sewa-beli",
	"kontraksewabeli":  "kontrak-sewa-beli",

	// recognition noise
	"suaaptaada": "",
	"suaaaaaada": "",
	"xrkkexa":    "",
	"xrkkexax":   "",
}

type multiWordRule struct {
	key         string
	replacement string
}

// multiWordRules hold phrases spanning several tokens or containing
// punctuation. Whitespace inside a key matches any run of whitespace.
var multiWordRules = []multiWordRule{
	// departemen header
	{"departemen pekerjaan umum pan tenaca", "departemen pekerjaan umum dan tenaga"},
	{"departemen pekerjaan umum pan tenaga", "departemen pekerjaan umum dan tenaga"},
	{"departemen pekerjaan umum dan tenaca", "departemen pekerjaan umum dan tenaga"},
	{"departemen pekerjaan umum pun tenaga", "departemen pekerjaan umum dan tenaga"},
	{"departemen ptsyaai dan tenaga", "departemen pekerjaan umum dan tenaga"},
	{"departntnptsyaai dan tenaga", "departemen pekerjaan umum dan tenaga"},
	{"departntnptsyaai pan tenaca", "departemen pekerjaan umum dan tenaga"},
	{"departntnptsyaai pan tenaga", "departemen pekerjaan umum dan tenaga"},
	{"departntnptsyaai dan tenaca", "departemen pekerjaan umum dan tenaga"},
	{"departntnptsjaai pan tenaca", "departemen pekerjaan umum dan tenaga"},
	{"departntnptsjaai pan tenaga", "departemen pekerjaan umum dan tenaga"},
	{"departemen pcaai dan tenaga", "departemen pekerjaan umum dan tenaga"},
	{"departemen toal tan tenaca", "departemen pekerjaan umum dan tenaga"},
	{"departemen toal", "departemen pekerjaan umum"},
	{"departma perumahan", "departemen perumahan"},
	{"dopartemen pekerjaan", "departemen pekerjaan"},

	// pusat jawatan gedung negara
	{"pusat caa tenggara", "pusat jawatan gedung negara"},
	{"pusat caa tenagara", "pusat jawatan gedung negara"},
	{"pusat camat tenggara", "pusat jawatan gedung negara"},
	{"pusat camat tenagara", "pusat jawatan gedung negara"},
	{"pusat caamat tanggara", "pusat jawatan gedung negara"},
	{"pusat caa gtgigara", "pusat jawatan gedung negara"},
	{"pusat cap gtgigara", "pusat jawatan gedung negara"},
	{"pusat jawa gtgigara", "pusat jawatan gedung negara"},
	{"pusat tjaa gtgigara", "pusat jawatan gedung negara"},
	{"pusat tala gtgigara", "pusat jawatan gedung negara"},
	{"pusat gtgigara", "pusat jawatan gedung negara"},
	{"pusat tala", "pusat jawatan"},
	{"pusat djawatan gedung2 negara", "pusat jawatan gedung negara"},

	// keterangan penunjukan
	{"kater angan peninyutan", "keterangan penunjukan"},
	{"kater angan penunjukan", "keterangan penunjukan"},
	{"katerangan peninjukan", "keterangan penunjukan"},
	{"kartu angka penunjukan", "keterangan penunjukan"},
	{"katp angan pnid jukyan", "keterangan penunjukan"},
	{"kater angan pnid juanda", "keterangan penunjukan"},
	{"kep angan pnid utan", "keterangan penunjukan"},
	{"kater angan", "keterangan"},
	{"kemter angan", "keterangan"},
	{"kep angan", "keterangan"},

	// rumah negara
	{"rumah neg ara", "rumah negara"},
	{"rumah ng utara", "rumah negara"},
	{"rumah nfg ara", "rumah negara"},

	// common document phrases
	{"untul monciari rumah", "untuk menghuni rumah"},
	{"untuk monciari rumah", "untuk menghuni rumah"},
	{"untuk monciri runah", "untuk menghuni rumah"},
	{"bercgs-r-an surat", "berdasarkan surat"},
	{"barcgs-r-an surat", "berdasarkan surat"},
	{"berdasar-an surat", "berdasarkan surat"},
	{"ketsraigan lantai", "keterangan lain-lain"},
	{"d juml.h penghuni", "jumlah penghuni"},
	{"d jumlh penghuni", "jumlah penghuni"},
	{"juml.h penghuni", "jumlah penghuni"},
	{"rum.h monurut", "rumah menurut"},
	{"untuk menghuni rumah dil.ianat/a", "untuk menghuni rumah negara"},
	{"untuk menghuni rumah dil.ianat", "untuk menghuni rumah negara"},
	{"dil.ianat/a", "dinas"},
	{"dil.ianat", "dinas"},
	{"surat=keteranga", "surat keterangan"},
	{"surat putusen", "surat putusan"},
	{"kepu tusan", "keputusan"},

	// addresses
	{"jalan krmat", "jalan kramat"},
	{"jelan kramat", "jalan kramat"},
	{"jelan krmat", "jalan kramat"},
	{"jlan kramat", "jalan kramat"},
	{"jlan krmat", "jalan kramat"},
	{"djalan krmat", "jalan kramat"},
	{"jl.ir.h.juanda", "jl. ir. h. juanda"},
	{"j.ir.h.juanda", "jl. ir. h. juanda"},
	{"kebajoran ba", "kebayoran baru"},

	// treasury offices
	{"kantor pembagian bendahara negara", "kantor perbendaharaan negara"},
	{"kantor mpet zorbon", "kantor pusat perbendaharaan"},
	{"krmat kantor bendahara", "kepada kantor bendahara"},
	{"enam pertanian pegawai", "badan kepegawaian"},
	{"enam peraturan pegawai", "badan kepegawaian"},
	{"daftaran gaji", "daftar gaji"},
	{"daftaran negara", "perbendaharaan negara"},

	// officials
	{"menteri pekerjaan umur dan tenaga", "menteri pekerjaan umum dan tenaga"},
	{"konala jawa tan", "kepala jawatan"},
	{"konala urnsan", "kepala urusan"},
	{"juru tuiis", "juru tulis"},

	// assorted fragments
	{"sebagai lampiran dar", "sebagai lampiran dari"},
	{"setelah cwtinggal", "setelah ditinggal"},
	{"d jika rumah ten", "dan jika rumah ter"},
	{"sebut dits bolum", "sebut belum"},
	{"dits bolum", "belum"},
	{"bolum dapat", "belum dapat"},
	{"diri cri", "diri dari"},
	{"umur !keterangen", "umur keterangan"},
	{"sic scbulan", "sewa sebulan"},
	{"cori surat", "dari surat"},
	{"kopada telp", "pada tanggal"},
	{"katerangan ini beru", "keterangan ini berlaku"},
	{"tidal berlalu", "tidak berlaku"},
	{"dengan ini ruangan", "dengan ini menyatakan"},
	{"dibuat jrn lain", "dibuat urusan lain"},

	// housing
	{"penunyukan runah", "penunjukan rumah"},
	{"sewa bali rumah", "sewa beli rumah"},
	{"sewa bot rumah", "sewa beli rumah"},
	{"ponyerakan runah", "penyerahan rumah"},
	{"kontrak sewa", "kontrak-sewa-beli"},

	// numbers in words
	{"da wun", "dua puluh"},
	{"da puluh", "dua puluh"},
	{"tiga wun", "tiga puluh"},
	{"empat wun", "empat puluh"},
	{"lima wun", "lima puluh"},
	{"dua plh", "dua puluh"},
	{"ia ribu", "lima ribu"},
	{"ia ibu", "lima ribu"},
	{"diba jar", "dibayar"},
	{"di bajar", "dibayar"},

	// dates
	{"torhitung mulai", "terhitung mulai"},

	// institutions
	{"lembazan negara", "lembaran negara"},
	{"anggaran belanya", "anggaran belanja"},
}
