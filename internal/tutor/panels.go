package tutor

// Panel is a block of static help text shown beside the conversation.
type Panel struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

const (
	PanelWelcome    = "welcome"
	PanelCurriculum = "curriculum_info"
	PanelNotes      = "important_notes"
	PanelSamples    = "sample_questions"
	PanelExamTips   = "exam_tips"
	PanelContact    = "contact"
)

// Footer is shown under the conversation on every surface.
const Footer = `🎓 Powered by AI9Campus | Telangana State Board (SCERT) Curriculum 2024-25
⚠️ Always cross-verify important information with your textbook and teacher`

var panels = []Panel{
	{
		ID:    PanelWelcome,
		Title: "Welcome to AI9Campus Smart Tutor! 👋",
		Markdown: `I'm your personal learning assistant for the **Telangana State Board (SCERT)** curriculum.

📚 **I can help you with:**
- Explaining concepts from your textbooks (Classes 1-10)
- Solving numerical problems step-by-step
- Exam preparation and answer writing techniques
- Clarifying doubts in English, Telugu, or Urdu medium

**Let's get started!** Ask me anything from your syllabus, or try:
- "Explain 10th class Social Studies Chapter 1"
- "How do I solve quadratic equations?"
- "What is photosynthesis in simple terms?"
- "తెలుగు మాధ్యమంలో వివరించు" (Ask in Telugu!)`,
	},
	{
		ID:    PanelCurriculum,
		Title: "📚 Curriculum Information",
		Markdown: `**Official Source:**
SCERT Telangana e-Textbooks
[https://scert.telangana.gov.in/](https://scert.telangana.gov.in/)

**Academic Year:** 2024-25

**Coverage:**
- 📖 **Classes:** 1 to 10
- 🗣️ **Mediums:** English, Telugu, Urdu
- 📝 **Subjects:** All SCERT subjects

**Support:**
- Primary (1-5)
- Upper Primary (6-7)
- High School (8-10)
- SSC Exam Preparation`,
	},
	{
		ID:    PanelNotes,
		Title: "⚠️ Important Notes",
		Markdown: `- Always verify chapter numbers with your textbook
- Report any curriculum mismatches
- This bot covers only TS Board syllabus

**Need Help?**
Press 👎 below any response to provide feedback.`,
	},
	{
		ID:    PanelSamples,
		Title: "📝 Sample Questions",
		Markdown: `**Try asking:**
- Explain the water cycle (Class 6 Science)
- What is democracy? (Class 9 Social)
- Solve: x² + 5x + 6 = 0 (Class 10 Maths)
- రుతువులు ఎలా వస్తాయి? (Telugu)`,
	},
	{
		ID:    PanelExamTips,
		Title: "🎯 Exam Tips",
		Markdown: `**SSC Exam Strategies:**
- Read questions carefully (2 min)
- Attempt easy questions first
- Show all steps in numericals
- Use diagrams where required
- Review answers (last 15 min)`,
	},
	{
		ID:    PanelContact,
		Title: "📞 Need Help?",
		Markdown: `**Support:**
- Report errors using the 👎 feedback option
- Check your textbook for chapter numbers
- Verify content with your teacher
- Visit: scert.telangana.gov.in`,
	},
}

// Panels returns the static help panels in display order.
func Panels() []Panel {
	out := make([]Panel, len(panels))
	copy(out, panels)
	return out
}

// PanelByID finds one panel.
func PanelByID(id string) (Panel, bool) {
	for _, p := range panels {
		if p.ID == id {
			return p, true
		}
	}
	return Panel{}, false
}
