package report

// defaultShell is the embedded stylesheet shell the merged report body is
// inserted into. Used directly, or as fallback when a template file is
// configured but unreadable.
const defaultShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{COMPANY_NAME}} ({{TICKER}}) - Investment Report</title>
<style>
:root {
  --report-blue: #005f90;
  --report-dark: #1a2332;
  --report-grey: #5a6572;
  --report-light: #f4f6f8;
  --report-accent: #c8a24b;
}
* { box-sizing: border-box; margin: 0; padding: 0; }
body {
  font-family: 'Segoe UI', Arial, sans-serif;
  color: var(--report-dark);
  background: var(--report-light);
  line-height: 1.5;
}
.presentation-container {
  max-width: 1100px;
  margin: 0 auto;
  padding: 24px;
}
.slide {
  background: #fff;
  border-top: 4px solid var(--report-blue);
  box-shadow: 0 2px 8px rgba(26, 35, 50, 0.12);
  margin-bottom: 32px;
  padding: 40px 48px;
  min-height: 720px;
  page-break-after: always;
  position: relative;
}
.slide h1 { color: var(--report-blue); font-size: 2rem; margin-bottom: 16px; }
.slide h2 { color: var(--report-blue); font-size: 1.4rem; margin-bottom: 12px; border-bottom: 2px solid var(--report-light); padding-bottom: 6px; }
.slide h3 { color: var(--report-dark); font-size: 1.1rem; margin: 14px 0 8px; }
.slide p { margin-bottom: 10px; font-size: 0.95rem; }
.slide ul { margin: 8px 0 12px 22px; }
.slide li { margin-bottom: 6px; font-size: 0.95rem; }
.slide table { width: 100%; border-collapse: collapse; margin: 14px 0; font-size: 0.85rem; }
.slide th {
  background: var(--report-blue);
  color: #fff;
  padding: 7px 10px;
  text-align: right;
  font-weight: 600;
}
.slide th:first-child, .slide td:first-child { text-align: left; }
.slide td { padding: 6px 10px; text-align: right; border-bottom: 1px solid #e2e6ea; }
.slide tr:nth-child(even) td { background: var(--report-light); }
.metrics-grid {
  display: grid;
  grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
  gap: 16px;
  margin: 16px 0;
}
.metrics-grid > div {
  background: var(--report-light);
  border-left: 3px solid var(--report-accent);
  padding: 14px 16px;
}
.rating-overweight { color: #1d7a46; font-weight: 700; }
.rating-neutral { color: var(--report-grey); font-weight: 700; }
.rating-underweight { color: #b03a2e; font-weight: 700; }
.data-note { color: var(--report-grey); font-style: italic; }
.report-footer {
  position: absolute;
  bottom: 16px;
  left: 48px;
  right: 48px;
  display: flex;
  justify-content: space-between;
  font-size: 0.75rem;
  color: var(--report-grey);
  border-top: 1px solid #e2e6ea;
  padding-top: 8px;
}
@media print {
  body { background: #fff; }
  .slide { box-shadow: none; margin-bottom: 0; }
}
</style>
</head>
<body>
<div class="presentation-container">
{{REPORT_BODY}}
</div>
</body>
</html>`
