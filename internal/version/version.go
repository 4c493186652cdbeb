package version

import (
	_ "embed" // for go:embed
	"strconv"
	"strings"
)

// VERSION holds the portal's version
//
//go:embed VERSION
var VERSION string

// Version segments
var (
	MAJOR int
	MINOR int
	FIX   int
	PRE   int
)

func init() {
	if VERSION[len(VERSION)-1] == '\n' {
		VERSION = VERSION[:len(VERSION)-1]
	}
	v := strings.Split(VERSION, ".")
	MAJOR, _ = strconv.Atoi(v[0])
	MINOR, _ = strconv.Atoi(v[1])
	ps := strings.Split(v[2], "-")
	FIX, _ = strconv.Atoi(ps[0])
	if len(ps) > 1 {
		pre := strings.TrimPrefix(ps[1], "pr")
		PRE, _ = strconv.Atoi(pre)
	}
}

var bannerMap = map[rune]string{
	'0': `
  ###   
 #   #  
#     # 
#     # 
#     # 
 #   #  
  ###   
`,
	'1': `
  #   
 ##   
# #   
  #   
  #   
  #   
##### 
`,
	'2': `
 #####  
#     # 
      # 
 #####  
#       
#       
####### 
        
`,
	'3': `
 #####  
#     # 
      # 
 #####  
      # 
#     # 
 #####  
`,
	'4': `
#       
#    #  
#    #  
#    #  
####### 
     #  
     #  
`,
	'5': `
####### 
#       
#       
######  
      # 
#     # 
 #####  
`,
	'6': `
 #####  
#     # 
#       
######  
#     # 
#     # 
 #####  
`,
	'7': `
####### 
#    #  
    #   
   #    
  #     
  #     
  #     
`,
	'8': `
 #####  
#     # 
#     # 
 #####  
#     # 
#     # 
 #####  
`,
	'9': `
 #####  
#     # 
#     # 
 ###### 
      # 
#     # 
 #####  
`,
	'.': `
    
    
    
    
### 
### 
### 
`,
}

// Banner renders VERSION in large glyphs. Glyphs are wrapped onto a new row
// when a row would exceed width; each row is centered. A width <= 0 means
// no wrapping.
func Banner(width int) string {
	var out strings.Builder
	var row []string
	rowWidth := 0

	flush := func() {
		pad := ""
		if width > rowWidth {
			pad = strings.Repeat(" ", (width-rowWidth)/2)
		}
		for _, l := range row {
			out.WriteString(pad)
			out.WriteString(l)
			out.WriteByte('\n')
		}
		row, rowWidth = nil, 0
	}

	for _, r := range VERSION {
		lines, w := glyph(r)
		if lines == nil {
			continue
		}
		if row != nil && width > 0 && rowWidth+1+w > width {
			flush()
		}
		if row == nil {
			row = make([]string, len(lines))
			for i, l := range lines {
				row[i] = l + strings.Repeat(" ", w-len(l))
			}
			rowWidth = w
			continue
		}
		for len(row) < len(lines) {
			row = append(row, strings.Repeat(" ", rowWidth))
		}
		for i := range row {
			right := strings.Repeat(" ", w)
			if i < len(lines) {
				right = lines[i] + strings.Repeat(" ", w-len(lines[i]))
			}
			row[i] += " " + right
		}
		rowWidth += 1 + w
	}
	if row != nil {
		flush()
	}
	return out.String()
}

func glyph(r rune) ([]string, int) {
	g, ok := bannerMap[r]
	if !ok {
		return nil, 0
	}
	lines := strings.Split(strings.Trim(g, "\n"), "\n")
	w := 0
	for _, l := range lines {
		w = max(w, len(l))
	}
	return lines, w
}
