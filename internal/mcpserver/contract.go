package mcpserver

// ProcedureFormatContract describes the procedure file format accepted by
// import_procedure and produced by export_procedure.
const ProcedureFormatContract = `# Procedure File Format Contract

A procedure file is one JSON object (YAML with the same keys is also
accepted on import). Unknown keys are ignored; missing keys default to empty.

## Structure

` + "```" + `json
{
  "title": "Installation d'un nouveau poste de travail",
  "reference": "PROC-IT-2024-001",
  "version": "1.2.0",
  "author": "Jean Dupont",
  "validator": "Marie Martin",
  "creationDate": "15/01/2024",
  "revisionDate": "20/01/2024",
  "classification": "Interne",
  "logoData": null,
  "objective": "Ce que la procédure permet d'obtenir.",
  "scope": { "perimeter": "", "personnel": "", "systems": "" },
  "prerequisites": {
    "technical": [], "access": [], "tools": [], "environment": []
  },
  "steps": [
    {
      "name": "Préparation du matériel",
      "objective": "", "responsible": "", "duration": "30 min",
      "actions": [
        {
          "description": "Déballer le poste",
          "scenarios": [
            { "condition": "Si le matériel est neuf", "steps": ["Vérifier le bon de livraison"] }
          ]
        }
      ],
      "controls": ["Matériel complet"],
      "result": "Poste prêt à être configuré"
    }
  ],
  "validation": {
    "redactor": { "name": "" }, "verifier": { "name": "" }, "approver": { "name": "" }
  },
  "contact": { "supportEmail": "", "hotline": "", "portal": "", "location": "" },
  "company": "Entreprise",
  "versionHistory": []
}
` + "```" + `

## Rules

1. **Dates** use the ` + "`" + `DD/MM/YYYY` + "`" + ` layout.
2. **Versions** are ` + "`" + `MAJOR.MINOR.PATCH` + "`" + `. Every ` + "`" + `versionHistory` + "`" + ` entry must carry a
   valid version; a file with a malformed entry is rejected as a whole.
3. **versionHistory**, when present (even empty), replaces the current history
   and the current version follows its newest entry. When absent the history
   is left untouched.
4. **logoData** is a ` + "`" + `data:<mime>;base64,<data>` + "`" + ` URI or null. Use the
   ` + "`" + `set_logo` + "`" + ` tool rather than writing it by hand.
5. **Lists** never end up empty in the editor: an empty list on import gets
   one blank row. Blank rows are dropped on export.
6. **Export** requires ` + "`" + `validation.approver.name` + "`" + ` and a version bump
   (change type, author and comment).

## Field names for set_field

Procedure: title, reference, author, validator, classification, objective,
company, creationDate, revisionDate, scope.perimeter, scope.personnel,
scope.systems, validation.redactor, validation.verifier, validation.approver,
contact.supportEmail, contact.hotline, contact.portal, contact.location.

Step (node = step id): name, objective, responsible, duration, result.
Action (node = action id): description. Scenario (node = scenario id): condition.
Node ids come from the ` + "`" + `outline` + "`" + ` returned by get_procedure.
`
