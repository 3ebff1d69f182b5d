package regulatory

// Regulation identifies a regulation family in the knowledge base.
type Regulation string

const (
	RegulationGDPR     Regulation = "GDPR"
	RegulationHIPAA    Regulation = "HIPAA"
	RegulationPCIDSS   Regulation = "PCI-DSS"
	RegulationSOC2     Regulation = "SOC2"
	RegulationSOX      Regulation = "SOX"
	RegulationCCPA     Regulation = "CCPA"
	RegulationISO27001 Regulation = "ISO27001"
	RegulationNIST     Regulation = "NIST"
)

// regulationOrder fixes the iteration order over the knowledge base so that
// retrieval output is deterministic.
var regulationOrder = []Regulation{
	RegulationGDPR,
	RegulationHIPAA,
	RegulationPCIDSS,
	RegulationSOC2,
	RegulationSOX,
	RegulationCCPA,
	RegulationISO27001,
	RegulationNIST,
}

// Clause is one keyworded clause of a regulation family.
type Clause struct {
	Section  string
	Title    string
	Content  string
	Keywords []string
}

// knowledgeBase is the static clause corpus used for retrieval. Clause text
// is a condensed paraphrase, not authoritative regulatory language.
var knowledgeBase = map[Regulation][]Clause{
	RegulationGDPR: {
		{
			Section:  "Article 5",
			Title:    "Principles of processing personal data",
			Content:  "Personal data shall be processed lawfully, fairly and in a transparent manner. Data minimization: personal data shall be adequate, relevant and limited to what is necessary.",
			Keywords: []string{"personal data", "data minimization", "transparency", "lawful processing"},
		},
		{
			Section:  "Article 32",
			Title:    "Security of processing",
			Content:  "Implement appropriate technical and organizational measures to ensure a level of security appropriate to the risk, including encryption of personal data.",
			Keywords: []string{"security", "encryption", "technical measures", "risk assessment"},
		},
		{
			Section:  "Article 25",
			Title:    "Data protection by design and by default",
			Content:  "Implement appropriate technical and organizational measures designed to implement data-protection principles effectively.",
			Keywords: []string{"privacy by design", "data protection", "technical measures"},
		},
	},
	RegulationHIPAA: {
		{
			Section:  "164.312",
			Title:    "Technical safeguards",
			Content:  "Implement technical policies and procedures for electronic information systems that maintain electronic protected health information.",
			Keywords: []string{"technical safeguards", "electronic health information", "access control"},
		},
		{
			Section:  "164.308",
			Title:    "Administrative safeguards",
			Content:  "Implement policies and procedures to prevent, detect, contain, and correct security violations.",
			Keywords: []string{"administrative safeguards", "security policies", "incident response"},
		},
	},
	RegulationPCIDSS: {
		{
			Section:  "Requirement 3",
			Title:    "Protect stored cardholder data",
			Content:  "Protect stored cardholder data through strong cryptography and other security measures.",
			Keywords: []string{"cardholder data", "encryption", "strong cryptography", "storage security"},
		},
		{
			Section:  "Requirement 4",
			Title:    "Encrypt transmission of cardholder data",
			Content:  "Encrypt transmission of cardholder data across open, public networks.",
			Keywords: []string{"transmission encryption", "public networks", "cardholder data"},
		},
		{
			Section:  "Requirement 7",
			Title:    "Restrict access to cardholder data",
			Content:  "Restrict access to cardholder data on a need-to-know basis.",
			Keywords: []string{"access control", "need-to-know", "cardholder data", "restricted access"},
		},
	},
	RegulationSOC2: {
		{
			Section:  "CC6.1",
			Title:    "Logical and physical access controls",
			Content:  "The entity implements logical access security software, infrastructure, and architectures over protected information assets.",
			Keywords: []string{"access controls", "logical security", "protected information", "infrastructure"},
		},
		{
			Section:  "CC7.1",
			Title:    "System operation monitoring",
			Content:  "The entity selects and develops security monitoring and control activities that detect and respond to security events.",
			Keywords: []string{"monitoring", "security events", "detection", "response"},
		},
	},
	RegulationSOX: {
		{
			Section:  "Section 404",
			Title:    "Management assessment of internal controls",
			Content:  "Management must establish and maintain adequate internal control structure and procedures for financial reporting.",
			Keywords: []string{"internal controls", "financial reporting", "management assessment"},
		},
	},
	RegulationCCPA: {
		{
			Section:  "1798.100",
			Title:    "General duties of businesses that collect personal information",
			Content:  "A business that collects personal information about a consumer shall disclose the categories of personal information collected.",
			Keywords: []string{"personal information", "disclosure", "consumer rights", "transparency"},
		},
	},
	RegulationISO27001: {
		{
			Section:  "A.9.2",
			Title:    "User access management",
			Content:  "Formal user registration and de-registration procedures shall be implemented to enable assignment of access rights.",
			Keywords: []string{"access management", "user registration", "access rights", "procedures"},
		},
		{
			Section:  "A.12.2",
			Title:    "Protection from malware",
			Content:  "Detection, prevention and recovery controls to protect against malware shall be implemented.",
			Keywords: []string{"malware protection", "detection", "prevention", "recovery"},
		},
	},
	RegulationNIST: {
		{
			Section:  "NIST CSF PR.AC",
			Title:    "Identity Management and Access Control",
			Content:  "Access to physical and logical assets and associated facilities is limited to authorized users, processes, and devices.",
			Keywords: []string{"access control", "identity management", "authorized access", "physical security"},
		},
		{
			Section:  "NIST CSF DE.CM",
			Title:    "Security Continuous Monitoring",
			Content:  "The information system and assets are monitored at discrete intervals to identify cybersecurity events.",
			Keywords: []string{"continuous monitoring", "cybersecurity events", "system monitoring"},
		},
	},
}

// Regulations returns the regulation families in the knowledge base, in
// retrieval order.
func Regulations() []Regulation {
	out := make([]Regulation, len(regulationOrder))
	copy(out, regulationOrder)
	return out
}

// Clauses returns the clauses of one regulation family.
func Clauses(regulation Regulation) []Clause {
	return knowledgeBase[regulation]
}
