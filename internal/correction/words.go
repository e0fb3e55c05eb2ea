package correction

// documentWords are terms common in Indonesian government and legal
// documents, including old-spelling forms that appear verbatim in scans.
var documentWords = []string{
	// government bodies
	"departemen", "kementerian", "direktorat", "dirjen", "badan", "lembaga",
	"kantor", "dinas", "pusat", "cabang", "wilayah", "jawatan", "djawatan",
	"sekretariat", "inspektorat", "biro", "bagian", "subbagian", "seksi",

	// fields of government work
	"pekerjaan", "umum", "tenaga", "kerja", "keuangan", "pendidikan",
	"kesehatan", "pertanian", "perhubungan", "perindustrian", "kebudayaan",
	"perdagangan", "sosial", "agama", "dalam", "negeri", "luar", "hankam",
	"pertahanan", "keamanan", "kehakiman", "penerangan", "transmigrasi",

	// letters and decrees
	"surat", "keputusan", "keterangan", "peraturan", "undang", "penetapan",
	"nomor", "tanggal", "perihal", "lampiran", "tembusan", "petikan",
	"ditandatangani", "ditetapkan", "menimbang", "mengingat", "memutuskan",
	"menetapkan", "memperhatikan", "membaca", "mendengar", "menyatakan",
	"pertama", "kedua", "ketiga", "keempat", "kelima", "keenam",
	"halaman", "pasal", "ayat", "butir", "huruf", "angka", "salinan",
	"disampaikan", "mestinya", "dikehendaki", "bersangkutan", "berkepentingan",

	// positions
	"direktur", "kepala", "wakil", "sekretaris", "bendahara", "ketua",
	"pegawai", "karyawan", "staf", "pejabat", "menteri", "presiden",
	"gubernur", "bupati", "walikota", "camat", "lurah", "wedana",
	"asisten", "ajudan", "inspektur", "komisaris", "administrator",
	"pangkat", "golongan", "ruang", "tingkat", "eselon", "jabatannya",

	// places and addresses
	"jalan", "gedung", "rumah", "negara", "daerah", "kramat",
	"jakarta", "bandung", "surabaya", "semarang", "yogyakarta", "medan",
	"palembang", "makassar", "manado", "denpasar", "pontianak", "banjarmasin",
	"provinsi", "kabupaten", "kecamatan", "kelurahan", "desa", "kampung",
	"blok", "lantai", "gang", "lorong", "kompleks",
	"timur", "barat", "utara", "selatan", "tengah",

	// islands and regions
	"jawa", "sumatra", "sumatera", "kalimantan", "sulawesi", "papua",
	"bali", "nusa", "tenggara", "maluku", "irian", "borneo",

	// salary and finance
	"gaji", "tunjangan", "pokok", "rupiah", "pembayaran", "honorarium",
	"anggaran", "belanja", "pendapatan", "pajak", "iuran", "pungutan",
	"sewa", "sebulan", "setahun", "bulanan", "tahunan", "cicilan",
	"ribu", "ratus", "puluh", "seratus", "seribu", "juta", "sebesar", "lunas",

	// months and days
	"januari", "februari", "maret", "april", "mei", "juni",
	"juli", "agustus", "september", "oktober", "november", "desember",
	"nopember", "pebruari", "djanuari",
	"tahun", "bulan", "hari", "mulai", "sampai", "berakhir",
	"minggu", "senin", "selasa", "rabu", "kamis", "jumat", "sabtu",

	// status words
	"berlaku", "tidak", "sudah", "belum", "dapat", "harus",
	"wajib", "sesuai", "berdasarkan", "sebagaimana", "tersebut", "terlampir",
	"masing-masing", "kira-kira",
	"dibawah", "diatas", "berikut", "demikian", "bahwa", "agar", "supaya",
	"setelah", "ditinggalkan", "ditempati", "dihuni", "digunakan",

	// family and residents
	"nama", "umur", "jenis", "kelamin", "laki", "laki-laki", "perempuan", "wanita", "pria",
	"istri", "suami", "anak", "ayah", "ibu", "kakak", "adik", "nenek", "kakek",
	"lahir", "tempat", "alamat", "bangsa",
	"penghuni", "anggota", "keluarga", "orang", "jiwa",

	// property
	"tanah", "bangunan", "pekarangan", "persil", "kavling",
	"tinggal", "lama", "baru", "luas", "meter", "persegi",
	"kamar", "dapur", "garasi", "teras",

	// common verbs
	"menyetujui", "menyerahkan", "menerima", "mengajukan", "memohon",
	"memberikan", "menunjuk", "mengangkat", "memberhentikan", "memindahkan",
	"menghuni", "mendirikan", "membangun", "memperbaiki", "merawat",

	// conjunctions and prepositions
	"yang", "dan", "atau", "untuk", "dari", "dengan", "pada", "oleh",
	"ini", "itu", "adalah", "sebagai", "kepada", "terhadap", "tentang",
	"atas", "bawah", "sebelum", "sesudah", "antara",
	"akan", "telah", "sedang", "masih", "juga", "serta", "maupun",

	// adjectives
	"besar", "kecil", "tinggi", "rendah", "panjang", "pendek", "lebar",
	"tua", "muda", "baik", "buruk", "benar", "salah",

	// state housing documents
	"penunjukan", "penghunian", "penggunaan", "pemeliharaan", "penyerahan",
	"hak", "kewajiban", "syarat", "ketentuan", "larangan", "sanksi",
	"kontrak-sewa-beli", "kontrak", "sewa-beli", "tjara-sewa-beli", "cara-sewa-beli",

	// older government terms
	"djakarta", "djasa", "djuru", "adjudan", "djalan", "djl", "djend",
	"djenderal", "djoeragan", "demang", "mantri",
	"persewaan", "kartu", "tjap", "stempel", "meterai",
	"gouvernement", "resident", "regentschap", "afdeeling",

	// colonial records
	"staatblad", "bijblad", "besluit", "resolutie", "ordonnantie",
	"burgerlijke", "stand", "akta", "akte", "turunan",

	// administration and abbreviations
	"nip", "karpeg", "pensiun", "janda", "duda", "yatim", "piatu",
	"kepolisian", "kejaksaan", "pengadilan", "mahkamah", "agung",
	"sipil", "militer", "abri", "tni", "polri",
	"purnawirawan", "purn", "alm", "almarhum",
	"bin", "binti", "alias", "dkk",
	"tertanda", "ttd", "aub", "hal",
	"yth", "bapak", "sdr", "sdri",
	"pjo", "plh", "plt",
	"khusus", "ibukota", "dki", "raya",
	"kotamadya", "propinsi",
	"kodya", "kab", "kec", "kel",
	"jln", "no", "rt", "rw",
}

// personNames are given names, titles and family names frequent in older records.
var personNames = []string{
	"sujono", "suparman", "hartono", "bambang", "joko", "budi", "agus",
	"ahmad", "muhammad", "mohamad", "moh", "abdul", "ali", "hasan", "umar",
	"udin", "didi", "dede", "asep", "ujang", "yanto", "sugeng", "sutrisno",
	"supardi", "suradi", "sudirman", "sudarno", "sukardi", "suharto",
	"sukarno", "slamet", "rosidi", "ridwan", "rahman", "pudjo", "parto",
	"parman", "paijo", "ngadiman", "ngadino", "mulyono", "mulyo", "karno",
	"kardi", "kamto", "darmo", "darmono", "cipto", "ciptono", "bejo",
	"harjo", "harjono", "wongso", "kasno", "kasiman", "kasman",
	"marhadi", "suparto", "sumarto",

	"ngatirah", "kasminem", "sriati", "sriyati", "sri", "siti", "dewi",
	"ratna", "yanti", "kartini", "aminah", "fatimah", "aisha", "aisyah",
	"sumiati", "sumirah", "sumini", "suparni", "supami",
	"tuminah", "tumini", "waginah", "waginem", "warsinah", "warsini",
	"parmi", "parmini", "parminah", "sarmi", "sarmini", "sarminah",
	"lastri", "lestari", "kasmirah", "kasmini", "kasminah", "wagiyem",
	"wagirah", "sutinah", "sutini", "sutinem", "ngatini", "ngatinem",
	"rubiyah", "rubiyem", "satinem", "satinah", "tumiyem", "marni",
	"mainah", "sukati", "suwarti", "riswati",

	"raden", "mas", "mbak", "nyi", "haji", "hajjah",
	"hadji", "hadjah", "tuan", "nyonya", "nona", "krt", "kra",
	"roro", "gusti", "andi", "daeng", "oei", "tan", "liem", "kwee",

	"prawirodirjo", "prawiro", "mangku", "mangkunegara", "paku", "pakubuwono",
	"hamengku", "hamengkubuwono", "sosro", "sosrodiningrat", "gondokusumo",
}
