package dataset

// captions are used for every synthetic post.
var captions = []string{
	"Dia lindo no parque! 🌳",
	"Momento em família ❤️",
	"Novo hobby! 📚",
	"Passeio incrível! ✈️",
	"Almoço delicioso! 🍕",
	"Treino do dia 💪",
	"Pôr do sol maravilhoso 🌅",
	"Final de semana perfeito! 😊",
	"Novas conquistas! 🏆",
	"Café da manhã especial ☕",
	"Praia com os amigos 🏖️",
	"Noite de cinema 🎬",
	"Receita nova testada! 👩‍🍳",
	"Show incrível ontem! 🎵",
	"Novo livro! 📖",
}

// suspiciousTemplates all contain at least one literal of the built-in catalog.
var suspiciousTemplates = []string{
	"👧💕 Que fofa!",
	"💜💜 linda demais",
	"👧🏻💖 maravilhosa",
	"🌀👦 garoto bonito",
	"👦🌀 que menino lindo",
	"que menina linda",
	"garotinha fofa demais",
	"menino bonito esse",
	"👧💕💕 linda menina",
	"🌀👦🌀 que garoto",
	"💕👧🏻 tão fofa",
	"👦💙 lindo menino",
	"linda menina encantadora",
	"garoto lindo",
}

// suffixes vary suspicious comments without removing their pattern.
var suffixes = []string{"!", "!!", " 😍", " ✨", " demais"}

// normalTemplates never match a catalog literal.
var normalTemplates = []string{
	"Que legal! 😊",
	"Adorei! ❤️",
	"Muito bom! 👏",
	"Incrível! 🔥",
	"Parabéns! 🎉",
	"Top demais! 👍",
	"Show! 🎊",
	"Maravilhoso! ✨",
	"Que foto linda! 📸",
	"Arrasou! 💯",
	"Perfeito! 👌",
	"Sensacional! 🌟",
	"Que lugar bonito! 🏞️",
	"Muito massa! 😎",
	"Amei! 💖",
	"Que dia bom! ☀️",
	"Demais! 🙌",
	"Lindo lugar! 🌴",
	"Que delícia! 😋",
	"Boa! 💪",
}

// highRiskUsers make up the pool of authors with a high suspicion propensity.
var highRiskUsers = []string{"predator_1", "danger_acc", "suspect_usr", "bad_actor", "risk_user"}

// Propensity ranges of the two author pools.
const (
	highRiskMinPropensity = 0.70
	highRiskMaxPropensity = 0.95
	normalMinPropensity   = 0.00
	normalMaxPropensity   = 0.04
)
