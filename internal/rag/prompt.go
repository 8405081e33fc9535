package rag

import (
	"strings"

	"laolaw-rag/internal/vectorstore"
)

const (
	// InsufficientEvidencePhrase is the exact reply the model must give when the
	// reference material does not answer the question.
	InsufficientEvidencePhrase = "ຂໍອະໄພ, ບໍ່ພົບຂໍ້ມູນທີ່ກ່ຽວຂ້ອງໃນເອກະສານກົດໝາຍທີ່ມີຢູ່."

	// ApologyPhrase replaces a well-formed but empty generation.
	ApologyPhrase = "ຂໍອະໄພ, ລະບົບບໍ່ສາມາດສ້າງຄຳຕອບໄດ້ໃນຂະນະນີ້. ກະລຸນາລອງໃໝ່ອີກຄັ້ງ."

	// ReferenceDelimiter separates retrieved passages inside the reference block.
	ReferenceDelimiter = "\n---\n"

	persona = "ທ່ານເປັນຜູ້ຊ່ຽວຊານດ້ານກົດໝາຍລາວ.\n" +
		"ກະລຸນາຕອບຄຳຖາມດ້ານກົດໝາຍດ້ວຍພາສາລາວຢ່າງຊັດເຈນ ແລະ ເປັນທາງການ.\n" +
		"ຈັດຮູບແບບຄຳຕອບເປັນຫຍໍ້ໜ້າສັ້ນໆ ແລະ ອ້າງອີງເຖິງມາດຕາທີ່ກ່ຽວຂ້ອງ."
)

// Turn is one earlier question/answer exchange of the same conversation.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ReferenceBlock joins the retrieved passages in retrieval order. It is empty
// when nothing was retrieved.
func ReferenceBlock(matches []vectorstore.Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		c := m.Record.Chunk
		parts = append(parts, "ແຫຼ່ງທີ່ມາ: "+c.Source+"\nຫົວຂໍ້: "+c.Title+"\n"+c.Text)
	}
	return strings.Join(parts, ReferenceDelimiter)
}

// BuildPrompt assembles the generation prompt: persona, reference material,
// earlier turns, the question and the grounding rule.
func BuildPrompt(question string, history []Turn, matches []vectorstore.Match) string {
	var b strings.Builder
	b.WriteString(persona)

	b.WriteString("\n\nເອກະສານອ້າງອີງ:\n<<<\n")
	b.WriteString(ReferenceBlock(matches))
	b.WriteString("\n>>>\n")

	if len(history) > 0 {
		b.WriteString("\nບົດສົນທະນາກ່ອນໜ້າ:\n")
		for _, turn := range history {
			b.WriteString("ຖາມ: " + strings.TrimSpace(turn.Question) + "\n")
			b.WriteString("ຕອບ: " + strings.TrimSpace(turn.Answer) + "\n")
		}
	}

	b.WriteString("\nຄຳຖາມ: " + question + "\n\n")
	b.WriteString("ກົດລະບຽບ: ຕອບໂດຍອີງໃສ່ເອກະສານອ້າງອີງຂ້າງເທິງເທົ່ານັ້ນ, ຫ້າມໃຊ້ຄວາມຮູ້ອື່ນ. ")
	b.WriteString("ຖ້າເອກະສານອ້າງອີງບໍ່ມີຂໍ້ມູນພຽງພໍເພື່ອຕອບຄຳຖາມ, ໃຫ້ຕອບດ້ວຍປະໂຫຍກນີ້ເທົ່ານັ້ນ: \"")
	b.WriteString(InsufficientEvidencePhrase)
	b.WriteString("\"\n\nຄຳຕອບ:")
	return b.String()
}
