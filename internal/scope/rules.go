package scope

var goRules = map[string]Rule{
	"function_declaration":        {EndField: "body"},
	"method_declaration":          {EndField: "body"},
	"func_literal":                {EndField: "body"},
	"composite_literal":           {EndField: "body"},
	"import_declaration":          {},
	"type_declaration":            {},
	"var_declaration":             {},
	"const_declaration":           {},
	"if_statement":                {EndField: "consequence"},
	"for_statement":               {EndField: "body"},
	"expression_switch_statement": {EndToken: "{"},
	"type_switch_statement":       {EndToken: "{"},
	"select_statement":            {EndToken: "{"},
	"expression_case":             {EndToken: ":"},
	"type_case":                   {EndToken: ":"},
	"communication_case":          {EndToken: ":"},
	"default_case":                {},
}

var rubyRules = map[string]Rule{
	"module":           {},
	"class":            {},
	"singleton_class":  {},
	"method":           {EndField: "body"},
	"singleton_method": {EndField: "body"},
	"call":             {EndField: "block", Requires: "block"},
	"lambda":           {},
	"if":               {},
	"unless":           {},
	"elsif":            {},
	"while":            {},
	"until":            {},
	"for":              {},
	"case":             {},
	"when":             {},
	"begin":            {},
}

var pythonRules = map[string]Rule{
	"function_definition":  {EndField: "body"},
	"class_definition":     {EndField: "body"},
	"decorated_definition": {EndField: "definition"},
	"if_statement":         {EndField: "consequence"},
	"elif_clause":          {EndField: "consequence"},
	"else_clause":          {EndField: "body"},
	"for_statement":        {EndField: "body"},
	"while_statement":      {EndField: "body"},
	"with_statement":       {EndField: "body"},
	"try_statement":        {EndField: "body"},
	"except_clause":        {},
	"finally_clause":       {},
	"match_statement":      {EndField: "body"},
	"case_clause":          {EndField: "consequence"},
}

var rustRules = map[string]Rule{
	"function_item":      {EndField: "body"},
	"impl_item":          {EndField: "body"},
	"trait_item":         {EndField: "body"},
	"struct_item":        {EndField: "body"},
	"enum_item":          {EndField: "body"},
	"mod_item":           {EndField: "body"},
	"match_expression":   {EndField: "body"},
	"match_arm":          {},
	"if_expression":      {EndField: "consequence"},
	"for_expression":     {EndField: "body"},
	"while_expression":   {EndField: "body"},
	"loop_expression":    {EndField: "body"},
	"closure_expression": {EndField: "body"},
}

var cRules = map[string]Rule{
	"function_definition": {EndField: "body"},
	"struct_specifier":    {EndField: "body"},
	"enum_specifier":      {EndField: "body"},
	"union_specifier":     {EndField: "body"},
	"if_statement":        {EndField: "consequence"},
	"for_statement":       {EndField: "body"},
	"while_statement":     {EndField: "body"},
	"do_statement":        {EndField: "body"},
	"switch_statement":    {EndField: "body"},
	"case_statement":      {},
}

var javaRules = map[string]Rule{
	"class_declaration":            {EndField: "body"},
	"interface_declaration":        {EndField: "body"},
	"enum_declaration":             {EndField: "body"},
	"record_declaration":           {EndField: "body"},
	"method_declaration":           {EndField: "body"},
	"constructor_declaration":      {EndField: "body"},
	"lambda_expression":            {EndField: "body"},
	"if_statement":                 {EndField: "consequence"},
	"for_statement":                {EndField: "body"},
	"enhanced_for_statement":       {EndField: "body"},
	"while_statement":              {EndField: "body"},
	"do_statement":                 {EndField: "body"},
	"switch_expression":            {EndField: "body"},
	"switch_block_statement_group": {EndToken: ":"},
	"switch_rule":                  {EndToken: "->"},
	"try_statement":                {EndField: "body"},
	"catch_clause":                 {EndField: "body"},
}

var phpRules = map[string]Rule{
	"namespace_definition":  {EndField: "body"},
	"class_declaration":     {EndField: "body"},
	"interface_declaration": {EndField: "body"},
	"trait_declaration":     {EndField: "body"},
	"function_definition":   {EndField: "body"},
	"method_declaration":    {EndField: "body"},
	"if_statement":          {EndField: "body"},
	"foreach_statement":     {EndField: "body"},
	"for_statement":         {EndField: "body"},
	"while_statement":       {EndField: "body"},
	"switch_statement":      {EndField: "body"},
	"try_statement":         {EndField: "body"},
}

var typescriptRules = map[string]Rule{
	"function_declaration":           {EndField: "body"},
	"generator_function_declaration": {EndField: "body"},
	"function_expression":            {EndField: "body"},
	"arrow_function":                 {EndField: "body"},
	"class_declaration":              {EndField: "body"},
	"abstract_class_declaration":     {EndField: "body"},
	"interface_declaration":          {EndField: "body"},
	"enum_declaration":               {EndField: "body"},
	"method_definition":              {EndField: "body"},
	"if_statement":                   {EndField: "consequence"},
	"for_statement":                  {EndField: "body"},
	"for_in_statement":               {EndField: "body"},
	"while_statement":                {EndField: "body"},
	"do_statement":                   {EndField: "body"},
	"switch_statement":               {EndField: "body"},
	"switch_case":                    {},
	"try_statement":                  {EndField: "body"},
	"catch_clause":                   {EndField: "body"},
}
