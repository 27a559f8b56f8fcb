package catalog

import "github.com/vbonduro/aushadhi/internal/domain"

var english = &Catalog{
	Language: domain.English,
	Strings: Strings{
		AnalysisFailed:  "Failed to analyze medicine. Please try again.",
		ReportFailed:    "Failed to complete medicine analysis. Please try again.",
		ChatError:       "Sorry, I encountered an error. Please try again.",
		ErrorLabel:      "Error",
		UnknownMedicine: "Unknown Medicine",
	},
	sections: sectionMap(
		Section{Key: Identification, Title: "MEDICINE OVERVIEW", Template: `Please analyze this product and provide the following information:
1. Product name as shown on package
2. Product category/type
3. Registration information if visible
4. Manufacturer details

Please format as:
Name:
Category:
Manufacturer:
Registration:`},
		Section{Key: Composition, Title: "COMPOSITION", Template: `Please analyze and list:
1. Main components and their quantities
2. Additional components if visible
3. Standard formulation details if available

Format as:
Main Components:
- [component]: [quantity]
Additional Components:
- [list]`},
		Section{Key: Therapeutic, Title: "THERAPEUTIC INFORMATION", Template: `Please provide information about:
1. Primary purposes
2. How it functions
3. Expected outcomes
4. Research-based information

Format as:
Primary Purposes:
Function:
Expected Outcomes:`},
		Section{Key: Dosage, Title: "DOSAGE & ADMINISTRATION", Template: `Please provide information about:
1. Usage instructions
2. Recommended timing
3. Duration guidelines
4. Best practices

Format as:
Instructions:
Timing:
Duration:
Best Practices:`},
		Section{Key: Safety, Title: "SAFETY INFORMATION", Template: `Please provide information about:
1. Important precautions
2. Usage considerations
3. Common effects
4. Interaction guidelines

Format as:
Precautions:
Considerations:
Effects:
Guidelines:`},
		Section{Key: Storage, Title: "STORAGE & HANDLING", Template: `Please provide:
1. Storage recommendations
2. Duration of effectiveness
3. Handling guidelines

Format as:
Storage:
Duration:
Guidelines:`},
		Section{Key: Manufacturer, Title: "MANUFACTURER INFORMATION", Template: `Please provide:
1. Company information
2. Contact details
3. Website if available

Format as:
Company:
Contact:
Website:`},
	),
	initial: `Analyze this medicine package and provide a clear, simple analysis in this format:

MEDICINE NAME: [Name as shown on package]
CATEGORY: [Type of medicine]

KEY INFORMATION:
---------------
1. ACTIVE INGREDIENTS:
   - [Main ingredients with amounts]

2. USES:
   - [Main uses/purpose]

3. DOSAGE:
   - [Basic dosage info]

4. WARNINGS:
   - [Key safety warnings]

Keep it simple and clear. Focus on the most important information visible on the package.`,
	followUp: `You are a knowledgeable medical assistant. Based on this medicine information:
%s

Please answer this question:
%s

Important guidelines:
1. Always provide specific information based on the medicine details provided
2. If information is not available in the analysis, provide general information about similar medicines
3. Use bullet points for clarity
4. Bold important warnings or key points
5. Keep the response concise but informative
6. Never say "the provided text does not list..." - instead, provide relevant general information
7. For side effects or similar questions, list common ones from reliable medical sources`,
}
