package book

const Stylesheet = `body {
    font-family: Georgia, serif;
    line-height: 1.6;
    margin: 2em;
}
h1, h2, h3, h4, h5, h6 {
    font-family: Arial, sans-serif;
    margin-top: 1.5em;
    margin-bottom: 0.5em;
}
h1 { font-size: 2em; }
h2 { font-size: 1.5em; }
h3 { font-size: 1.2em; }
p {
    margin: 1em 0;
}
img {
    max-width: 100%;
    height: auto;
    display: block;
    margin: 1em auto;
}
code {
    font-family: 'Courier New', 'Consolas', 'Monaco', monospace;
    background-color: #f5f5f5;
    border: 1px solid #ddd;
    border-radius: 3px;
    padding: 2px 6px;
    font-size: 0.9em;
}
pre {
    font-family: 'Courier New', 'Consolas', 'Monaco', monospace;
    background-color: #f5f5f5;
    border: 1px solid #ddd;
    border-radius: 4px;
    padding: 1em;
    overflow-x: auto;
    line-height: 1.4;
    margin: 1em 0;
}
pre code {
    background-color: transparent;
    border: none;
    padding: 0;
    font-size: 0.85em;
}
blockquote {
    border-left: 4px solid #ccc;
    margin: 1em 0;
    padding-left: 1em;
    font-style: italic;
}
table {
    border-collapse: collapse;
    width: 100%;
    margin: 1em 0;
}
th, td {
    border: 1px solid #ddd;
    padding: 0.5em;
    text-align: left;
}
th {
    background-color: #f5f5f5;
    font-weight: bold;
}
.section-title {
    display: flex;
    justify-content: center;
    align-items: center;
    height: 100vh;
    text-align: center;
}
.section-title h1 {
    font-size: 2em;
    margin: 0;
}
`
